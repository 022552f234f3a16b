package middleware

import (
	"strings"
	"time"

	"github.com/eduprompt/eduprompt/app/controllers"
	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/internal/pkg/database"
	"github.com/eduprompt/eduprompt/internal/pkg/session"
	"github.com/eduprompt/eduprompt/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	// We skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}
	// Get session with error handling
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymousContext(c)
	}

	// Get user ID from session
	userID := sess.Get(controllers.USER_ID)
	if userID == nil {
		return anonymousContext(c)
	}

	// User is logged in - get additional data
	username := session.GetSessionValue(c, controllers.USER_NAME)
	isAdmin := sess.Get(controllers.USER_IS_ADMIN)
	role := session.GetSessionValue(c, controllers.USER_ROLE)

	// Determine plan with session-first strategy
	plan := session.GetSessionValue(c, "user_plan")
	if plan == "" {
		plan = "free"
		if db := database.GetDB(); db != nil {
			if us, err := models.GetOrCreateUserSettings(db, userID.(uint)); err == nil && us != nil && us.Plan != "" {
				plan = us.Plan
			}
		}
		// cache in session for subsequent requests
		_ = session.SetSessionValue(c, "user_plan", plan)
	}

	// Resolve school membership for tenant-scoped views
	var schoolID uint
	hasSchoolSub := false
	if db := database.GetDB(); db != nil {
		var user models.User
		if err := db.Select("id", "school_id").First(&user, userID.(uint)).Error; err == nil && user.SchoolID != nil {
			schoolID = *user.SchoolID
			var school models.School
			if err := db.First(&school, schoolID).Error; err == nil {
				hasSchoolSub = school.HasActiveSubscription(time.Now())
			}
		}
	}

	// Set complete user context
	userCtx := usercontext.UserContext{
		UserID:                userID.(uint),
		Username:              username,
		IsLoggedIn:            true,
		IsAdmin:               isAdmin != nil && isAdmin.(bool),
		Role:                  role,
		Plan:                  plan,
		SchoolID:              schoolID,
		HasSchoolSubscription: hasSchoolSub,
	}
	c.Locals("USER_CONTEXT", userCtx)

	// Legacy compatibility - keep existing Locals for backward compatibility
	c.Locals(controllers.FROM_PROTECTED, true)
	c.Locals(controllers.USER_NAME, username)
	c.Locals(controllers.USER_ID, userID.(uint))
	c.Locals(controllers.USER_IS_ADMIN, userCtx.IsAdmin)

	return c.Next()
}

func anonymousContext(c *fiber.Ctx) error {
	c.Locals("USER_CONTEXT", usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(controllers.FROM_PROTECTED, false)
	c.Locals(controllers.USER_IS_ADMIN, false)
	return c.Next()
}
