package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/app/repository"
	"github.com/eduprompt/eduprompt/internal/pkg/s3export"
	"github.com/eduprompt/eduprompt/internal/pkg/usercontext"
)

// HandleSchoolDashboard shows the school admin overview: subscription window,
// seats and member list.
func HandleSchoolDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.SchoolID == 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No school assigned to your account"}).Redirect("/")
	}

	school, err := repository.GetGlobalFactory().GetSchoolRepository().GetByID(userCtx.SchoolID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "School could not be loaded"}).Redirect("/")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	members, err := userRepo.GetBySchoolID(school.ID, 0, 200)
	if err != nil {
		members = nil
	}
	memberCount, _ := userRepo.CountBySchoolID(school.ID)

	return c.Render("school/dashboard", fiber.Map{
		"Title":            school.Name,
		"Flash":            flash.Get(c),
		"CsrfToken":        csrfToken(c),
		"School":           school,
		"Members":          members,
		"MemberCount":      memberCount,
		"SubscriptionLive": school.HasActiveSubscription(time.Now()),
		"SeatsRemaining":   school.SeatCount - int(memberCount),
	}, "layouts/main")
}

// HandleSchoolMemberAdd assigns an existing user (by email) to the school.
func HandleSchoolMemberAdd(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.SchoolID == 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No school assigned to your account"}).Redirect("/")
	}

	email := strings.TrimSpace(c.FormValue("email"))
	if email == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Email is required"}).Redirect("/school")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(email)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No account found for " + email}).Redirect("/school")
	}
	if user.SchoolID != nil && *user.SchoolID == userCtx.SchoolID {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "User is already a member of your school"}).Redirect("/school")
	}

	school, err := repository.GetGlobalFactory().GetSchoolRepository().GetByID(userCtx.SchoolID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "School could not be loaded"}).Redirect("/school")
	}
	if school.SeatCount > 0 {
		memberCount, err := userRepo.CountBySchoolID(school.ID)
		if err == nil && int(memberCount) >= school.SeatCount {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "All seats are taken. Contact sales to add more."}).Redirect("/school")
		}
	}

	schoolID := userCtx.SchoolID
	user.SchoolID = &schoolID
	if err := userRepo.Update(user); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/school")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": user.Name + " joined your school"}).Redirect("/school")
}

// HandleSchoolMemberRemove detaches a member from the school.
func HandleSchoolMemberRemove(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.SchoolID == 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No school assigned to your account"}).Redirect("/")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid member"}).Redirect("/school")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(uint(id))
	if err != nil || user.SchoolID == nil || *user.SchoolID != userCtx.SchoolID {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "User is not a member of your school"}).Redirect("/school")
	}
	if user.ID == userCtx.UserID {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "You cannot remove yourself"}).Redirect("/school")
	}

	user.SchoolID = nil
	if user.Role == models.ROLE_SCHOOL_ADMIN {
		user.Role = models.ROLE_TEACHER
	}
	if err := userRepo.Update(user); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/school")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": user.Name + " was removed from your school"}).Redirect("/school")
}

// HandleSchoolBillingExport uploads a CSV of the school's paid payments for
// one month to the export bucket.
func HandleSchoolBillingExport(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.SchoolID == 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No school assigned to your account"}).Redirect("/")
	}

	cfg, err := s3export.LoadConfig()
	if err != nil || !cfg.IsEnabled() {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Billing export is not enabled"}).Redirect("/school")
	}

	client, err := s3export.NewClient(cfg)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Export storage unavailable"}).Redirect("/school")
	}

	month := time.Now().AddDate(0, -1, 0)
	if raw := strings.TrimSpace(c.FormValue("month")); raw != "" {
		if parsed, perr := time.Parse("2006-01", raw); perr == nil {
			month = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	key, count, err := client.ExportSchoolMonth(ctx, repository.GetGlobalFactory().GetPaymentRepository(), userCtx.SchoolID, month)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Export failed"}).Redirect("/school")
	}

	msg := fmt.Sprintf("Exported %d payments to %s", count, key)
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": msg}).Redirect("/school")
}
