package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/markbates/goth"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/internal/pkg/database"
	"github.com/eduprompt/eduprompt/internal/pkg/session"
)

// HandleOAuthCallback completes the provider flow and logs the user in.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	db := database.GetDB()

	appUser, err := resolveOAuthUser(db, u)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}
	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, appUser.ID)
	sess.Set(USER_NAME, appUser.Name)
	sess.Set(USER_IS_ADMIN, appUser.Role == models.ROLE_ADMIN)
	sess.Set(USER_ROLE, appUser.Role)
	if us, err := models.GetOrCreateUserSettings(db, appUser.ID); err == nil && us != nil {
		plan := us.Plan
		if plan == "" {
			plan = "free"
		}
		session.SetSessionValue(c, "user_plan", plan)
	}
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	_ = db.Model(appUser).UpdateColumn("last_login_at", time.Now()).Error

	return c.Redirect("/", fiber.StatusSeeOther)
}

// resolveOAuthUser maps a completed provider login onto a local account.
// A known provider account refreshes its tokens; an unknown one is linked
// to an existing user by email, or a fresh teacher account is created.
func resolveOAuthUser(db *gorm.DB, u goth.User) (*models.User, error) {
	var pa models.ProviderAccount
	res := db.Where("provider = ? AND provider_user_id = ?", u.Provider, u.UserID).First(&pa)

	if res.Error == nil {
		pa.AccessToken = u.AccessToken
		pa.RefreshToken = u.RefreshToken
		pa.ExpiresAt = tokenExpiry(u)
		if err := db.Save(&pa).Error; err != nil {
			return nil, fmt.Errorf("update tokens failed: %w", err)
		}
		var appUser models.User
		if err := db.First(&appUser, pa.UserID).Error; err != nil {
			return nil, errors.New("linked user not found")
		}
		return &appUser, nil
	}

	if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("db error: %w", res.Error)
	}

	var appUser models.User
	if u.Email != "" {
		_ = db.Where("email = ?", u.Email).First(&appUser).Error
	}
	if appUser.ID == 0 {
		created, err := createUserFromProvider(db, u)
		if err != nil {
			return nil, err
		}
		appUser = *created
	}

	pa = models.ProviderAccount{
		UserID:         appUser.ID,
		Provider:       u.Provider,
		ProviderUserID: u.UserID,
		AccessToken:    u.AccessToken,
		RefreshToken:   u.RefreshToken,
		ExpiresAt:      tokenExpiry(u),
	}
	if err := db.Create(&pa).Error; err != nil {
		return nil, fmt.Errorf("link provider failed: %w", err)
	}
	return &appUser, nil
}

func createUserFromProvider(db *gorm.DB, u goth.User) (*models.User, error) {
	// Password validation requires a value; provider logins never use it.
	placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
	hash, _ := models.HashPassword(placeholder)

	email := u.Email
	if email == "" {
		// Synthesize a unique address so the email unique index holds.
		email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
	}

	appUser := models.User{
		Name:      firstNonEmpty(u.Name, u.NickName, u.Email, "Teacher"),
		Email:     email,
		Password:  hash,
		AvatarURL: u.AvatarURL,
		Role:      models.ROLE_TEACHER,
		Status:    models.STATUS_ACTIVE,
	}
	if err := db.Create(&appUser).Error; err != nil {
		return nil, fmt.Errorf("create user failed: %w", err)
	}
	return &appUser, nil
}

func tokenExpiry(u goth.User) *time.Time {
	if u.ExpiresAt.IsZero() {
		return nil
	}
	t := u.ExpiresAt
	return &t
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
