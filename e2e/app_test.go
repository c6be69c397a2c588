package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite provides a test suite for end-to-end tests
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login() {
	// Wait for login form
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	// Fill in credentials
	err = suite.page.Locator("input[name=email]").Fill("test@example.com")
	require.NoError(suite.T(), err, "failed to fill email")

	err = suite.page.Locator("input[name=password]").Fill("testpass123")
	require.NoError(suite.T(), err, "failed to fill password")

	// Submit login
	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")

	// Wait for redirect to the dashboard
	err = suite.expect.Locator(suite.page.Locator(".dashboard-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "did not redirect to dashboard after login")
}

func (suite *E2ETestSuite) TestGuardKeepsAnonymousOut() {
	// Straight to a protected page without signing in
	_, err := suite.page.Goto(appURL + "/dashboard")
	require.NoError(suite.T(), err, "could not navigate")

	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "anonymous visit must land on the login form")
}

func (suite *E2ETestSuite) TestPostLifecycle() {
	suite.login()

	// Dashboard shows the streak chart
	err := suite.expect.Locator(suite.page.Locator("#streak-chart")).ToBeVisible()
	require.NoError(suite.T(), err, "streak chart not visible")

	// Write a post
	err = suite.page.Locator(".topnav a[href='/create']").Click()
	require.NoError(suite.T(), err, "failed to open create form")

	err = suite.expect.Locator(suite.page.Locator(".post-form")).ToBeVisible()
	require.NoError(suite.T(), err, "post form not visible")

	err = suite.page.Locator("input[name=title]").Fill("Morning Pages")
	require.NoError(suite.T(), err, "failed to fill title")

	err = suite.page.Locator("textarea[name=content]").Fill("Wrote before coffee today.")
	require.NoError(suite.T(), err, "failed to fill content")

	_, err = suite.page.Locator("select[name=status]").SelectOption(playwright.SelectOptionValues{
		Values: &[]string{"published"},
	})
	require.NoError(suite.T(), err, "failed to select status")

	err = suite.page.Locator(".save-btn").Click()
	require.NoError(suite.T(), err, "failed to submit post")

	// Lands on the post list with the new entry
	err = suite.expect.Locator(suite.page.Locator(".post-row")).ToHaveCount(1)
	require.NoError(suite.T(), err, "post row count mismatch")

	row := suite.page.Locator(".post-row").First()
	err = suite.expect.Locator(row.Locator(".post-title")).ToHaveText("Morning Pages")
	require.NoError(suite.T(), err, "post title mismatch")

	// Delete it again
	suite.page.OnDialog(func(d playwright.Dialog) { d.Accept() })
	err = row.Locator(".delete-btn").Click()
	require.NoError(suite.T(), err, "failed to click delete")

	err = suite.expect.Locator(suite.page.Locator(".post-row")).ToHaveCount(0)
	require.NoError(suite.T(), err, "post row still present after delete")
}

func (suite *E2ETestSuite) TestTimerStartsAndPauses() {
	suite.login()

	_, err := suite.page.Goto(appURL + "/habit")
	require.NoError(suite.T(), err, "could not open habit page")

	err = suite.expect.Locator(suite.page.Locator("#timer-clock")).ToHaveText("25:00")
	require.NoError(suite.T(), err, "timer not at full focus duration")

	err = suite.page.Locator(".start-btn").Click()
	require.NoError(suite.T(), err, "failed to start timer")

	// A running timer swaps in the pause control
	err = suite.expect.Locator(suite.page.Locator(".pause-btn")).ToBeVisible()
	require.NoError(suite.T(), err, "pause button not visible after start")

	err = suite.page.Locator(".pause-btn").Click()
	require.NoError(suite.T(), err, "failed to pause timer")

	err = suite.expect.Locator(suite.page.Locator(".start-btn")).ToBeVisible()
	require.NoError(suite.T(), err, "start button not visible after pause")
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
