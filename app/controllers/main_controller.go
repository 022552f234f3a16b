package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/eduprompt/eduprompt/internal/pkg/statistics"
	"github.com/eduprompt/eduprompt/internal/pkg/usercontext"
)

// HandleStart renders the landing page with live platform statistics.
func HandleStart(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	stats := statistics.GetStatisticsData()

	return c.Render("index", fiber.Map{
		"Title":        "EduPrompt",
		"Flash":        flash.Get(c),
		"IsLoggedIn":   userCtx.IsLoggedIn,
		"Username":     userCtx.Username,
		"TotalPrompts": stats.TotalPrompts,
		"TotalUsers":   stats.TotalUsers,
		"TodayPrompts": stats.TodayPrompts,
	}, "layouts/main")
}

// HandleAbout renders the static about page.
func HandleAbout(c *fiber.Ctx) error {
	return c.Render("about", fiber.Map{
		"Title": "About",
	}, "layouts/main")
}

// HandleContact renders the contact page used by the school sales flow.
func HandleContact(c *fiber.Ctx) error {
	return c.Render("contact", fiber.Map{
		"Title": "Contact",
		"Flash": flash.Get(c),
	}, "layouts/main")
}
