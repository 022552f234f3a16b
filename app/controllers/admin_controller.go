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
	"github.com/eduprompt/eduprompt/internal/pkg/entitlements"
	"github.com/eduprompt/eduprompt/internal/pkg/metrics/counter"
	"github.com/eduprompt/eduprompt/internal/pkg/s3export"
	"github.com/eduprompt/eduprompt/internal/pkg/statistics"
)

// HandleAdminDashboard renders the admin overview with cached aggregates and
// 30-day registration/creation charts.
func HandleAdminDashboard(c *fiber.Ctx) error {
	stats := statistics.GetStatisticsData()

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -30)

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	promptRepo := repository.GetGlobalFactory().GetPromptRepository()

	userDaily, err := userRepo.GetDailyStats(startDate, endDate)
	if err != nil {
		userDaily = nil
	}
	promptDaily, err := promptRepo.GetDailyStats(startDate, endDate)
	if err != nil {
		promptDaily = nil
	}

	paymentRepo := repository.GetGlobalFactory().GetPaymentRepository()
	revenueVND, _ := paymentRepo.SumPaidAmountVND()
	pendingCount, _ := paymentRepo.CountByStatus(models.PaymentStatusPending)
	failedCount, _ := paymentRepo.CountByStatus(models.PaymentStatusFailed)

	return c.Render("admin/dashboard", fiber.Map{
		"Title":          "Admin",
		"Flash":          flash.Get(c),
		"Stats":          stats,
		"UserDaily":      userDaily,
		"PromptDaily":    promptDaily,
		"RevenueDisplay": entitlements.FormatVND(revenueVND),
		"PendingCount":   pendingCount,
		"FailedCount":    failedCount,
	}, "layouts/admin")
}

// HandleAdminUsers lists users with usage statistics, optionally filtered.
func HandleAdminUsers(c *fiber.Ctx) error {
	userRepo := repository.GetGlobalFactory().GetUserRepository()

	query := strings.TrimSpace(c.Query("q"))
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	const perPage = 25

	var (
		users []repository.UserWithStats
		err   error
	)
	if query != "" {
		plain, serr := userRepo.Search(query)
		if serr == nil {
			for _, u := range plain {
				users = append(users, repository.UserWithStats{User: u})
			}
		}
		err = serr
	} else {
		users, err = userRepo.GetWithStats((page-1)*perPage, perPage)
	}
	if err != nil {
		users = nil
	}

	total, _ := userRepo.Count()

	return c.Render("admin/users", fiber.Map{
		"Title":     "Users",
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
		"Users":     users,
		"Query":     query,
		"Page":      page,
		"Total":     total,
	}, "layouts/admin")
}

// HandleAdminUserDisable disables a user account.
func HandleAdminUserDisable(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid user"}).Redirect("/admin/users")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(uint(id))
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "User not found"}).Redirect("/admin/users")
	}

	user.Status = models.STATUS_DISABLED
	if err := userRepo.Update(user); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/admin/users")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": user.Name + " disabled"}).Redirect("/admin/users")
}

// HandleAdminPayments lists all payments.
func HandleAdminPayments(c *fiber.Ctx) error {
	paymentRepo := repository.GetGlobalFactory().GetPaymentRepository()

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	const perPage = 50

	payments, err := paymentRepo.List((page-1)*perPage, perPage)
	if err != nil {
		payments = nil
	}
	total, _ := paymentRepo.Count()
	paidCount, _ := paymentRepo.CountByStatus(models.PaymentStatusPaid)

	type row struct {
		PublicID      string
		UserEmail     string
		TierID        string
		AmountDisplay string
		Status        string
		TxnRef        string
		CreatedAt     string
	}
	rows := make([]row, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, row{
			PublicID:      p.PublicID,
			UserEmail:     p.User.Email,
			TierID:        p.TierID,
			AmountDisplay: entitlements.FormatVND(p.AmountVND),
			Status:        p.Status,
			TxnRef:        p.TxnRef,
			CreatedAt:     p.CreatedAt.Format("02.01.2006 15:04"),
		})
	}

	return c.Render("admin/payments", fiber.Map{
		"Title":     "Payments",
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
		"Payments":  rows,
		"Page":      page,
		"Total":     total,
		"PaidCount": paidCount,
	}, "layouts/admin")
}

// HandleAdminPaymentExport uploads the previous month's paid payments as CSV
// to the configured S3 bucket.
func HandleAdminPaymentExport(c *fiber.Ctx) error {
	cfg, err := s3export.LoadConfig()
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": err.Error()}).Redirect("/admin/payments")
	}
	if !cfg.IsEnabled() {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "S3 export is not enabled"}).Redirect("/admin/payments")
	}

	client, err := s3export.NewClient(cfg)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "S3 client could not be created"}).Redirect("/admin/payments")
	}

	month := time.Now().AddDate(0, -1, 0)
	if raw := strings.TrimSpace(c.FormValue("month")); raw != "" {
		if parsed, perr := time.Parse("2006-01", raw); perr == nil {
			month = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	key, count, err := client.ExportMonth(ctx, repository.GetGlobalFactory().GetPaymentRepository(), month)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Export failed"}).Redirect("/admin/payments")
	}

	msg := fmt.Sprintf("Exported %d payments to %s", count, key)
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": msg}).Redirect("/admin/payments")
}

// HandleAdminSchools lists schools and handles creation.
func HandleAdminSchools(c *fiber.Ctx) error {
	schoolRepo := repository.GetGlobalFactory().GetSchoolRepository()

	if c.Method() == fiber.MethodPost {
		school := models.School{
			Name:         strings.TrimSpace(c.FormValue("name")),
			Slug:         strings.TrimSpace(c.FormValue("slug")),
			ContactEmail: strings.TrimSpace(c.FormValue("contact_email")),
		}
		if raw := strings.TrimSpace(c.FormValue("seats")); raw != "" {
			fmt.Sscanf(raw, "%d", &school.SeatCount)
		}

		if err := school.Validate(); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Please check name and slug"}).Redirect("/admin/schools")
		}
		if exists, err := schoolRepo.SlugExists(school.Slug); err == nil && exists {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Slug already taken"}).Redirect("/admin/schools")
		}
		if err := schoolRepo.Create(&school); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/admin/schools")
		}

		return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "School created"}).Redirect("/admin/schools")
	}

	schools, err := schoolRepo.GetAll()
	if err != nil {
		schools = nil
	}

	return c.Render("admin/schools", fiber.Map{
		"Title":     "Schools",
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
		"Schools":   schools,
	}, "layouts/admin")
}

// HandleAdminSchoolSubscription sets or extends a school's subscription
// window. School deals are closed offline, so this is the only way a school
// plan gets activated.
func HandleAdminSchoolSubscription(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid school"}).Redirect("/admin/schools")
	}

	schoolRepo := repository.GetGlobalFactory().GetSchoolRepository()
	school, err := schoolRepo.GetByID(uint(id))
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "School not found"}).Redirect("/admin/schools")
	}

	from, err := time.Parse("2006-01-02", strings.TrimSpace(c.FormValue("from")))
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid start date"}).Redirect("/admin/schools")
	}
	until, err := time.Parse("2006-01-02", strings.TrimSpace(c.FormValue("until")))
	if err != nil || !until.After(from) {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid end date"}).Redirect("/admin/schools")
	}

	school.SubscribedFrom = &from
	school.SubscribedUntil = &until
	if err := schoolRepo.Update(school); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/admin/schools")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Subscription window updated for " + school.Name}).Redirect("/admin/schools")
}

// cacheMonitorPatterns covers the statistics cache and the counter buffers.
var cacheMonitorPatterns = []string{"statistics:*", "prompt:counters:*", "user:counters:*"}

// HandleAdminQueues shows cache keys for operational debugging.
func HandleAdminQueues(c *fiber.Ctx) error {
	queueRepo := repository.GetGlobalFactory().GetQueueRepository()

	keys, err := queueRepo.FindKeysByPatterns(cacheMonitorPatterns)
	if err != nil {
		keys = nil
	}

	type entry struct {
		Key   string
		Value string
		TTL   string
	}
	entries := make([]entry, 0, len(keys))
	for _, key := range keys {
		value, _ := queueRepo.GetValue(key)
		ttl, _ := queueRepo.GetTTL(key)
		entries = append(entries, entry{Key: key, Value: value, TTL: ttl.String()})
	}

	return c.Render("admin/queues", fiber.Map{
		"Title":     "Cache monitor",
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
		"Entries":   entries,
	}, "layouts/admin")
}

// HandleAdminQueuePurge drops all monitored cache keys. Counters are
// flushed to the database first so no usage counts are lost.
func HandleAdminQueuePurge(c *fiber.Ctx) error {
	if err := counter.FlushAll(); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("counter flush failed: %s", err)}).Redirect("/admin/queues")
	}

	queueRepo := repository.GetGlobalFactory().GetQueueRepository()
	keys, err := queueRepo.FindKeysByPatterns(cacheMonitorPatterns)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/admin/queues")
	}

	deleted, err := queueRepo.DeleteKeys(keys)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/admin/queues")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": fmt.Sprintf("%d cache keys purged", deleted)}).Redirect("/admin/queues")
}
