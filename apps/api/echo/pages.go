package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core/gate"
)

// The portal frontend is a separate SPA; these handlers only anchor the
// gated page entry points so redirects resolve during development.
func registerPages(g *echo.Group) {
	g.GET(gate.SignInPath, signInPage)
	g.GET(gate.OnboardingPath, onboardingPage)
	g.GET(gate.StudentHomePath, studentHomePage)
	g.GET(gate.FacultyHomePath, facultyHomePage)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule!")
}

func signInPage(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Sign in")
}

func onboardingPage(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Complete your profile")
}

func studentHomePage(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Student dashboard")
}

func facultyHomePage(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Faculty dashboard")
}
