package view

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/domain"
)

func TestTemplatesParse(t *testing.T) {
	engine, err := NewEngine(false)
	require.NoError(t, err)
	require.NoError(t, engine.Load())
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("**Printer** broken <script>alert(1)</script>\n\n[docs](javascript:alert(1))")

	assert.Contains(t, out, "<strong>Printer</strong>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func TestNewTicketViews(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	alice := int64(7)
	views := NewTicketViews([]domain.Ticket{
		{ID: 1, Title: "Printer broken", Description: "Won't turn on", Priority: domain.TicketPriorityHigh,
			Status: domain.TicketStatusPending, CreatedAt: now.Add(-3 * time.Minute), AssignedUserID: &alice},
		{ID: 2, Title: "VPN", Description: "Cannot connect", Priority: domain.TicketPriorityLow,
			Status: domain.TicketStatusResolved, CreatedAt: now.Add(-2 * time.Hour)},
	}, now)
	views = WithAssignees(views, map[int64]string{7: "alice"})

	require.Len(t, views, 2)
	assert.Equal(t, "High", views[0].Priority)
	assert.Equal(t, "danger", views[0].PriorityClass)
	assert.True(t, views[0].Assigned)
	assert.Equal(t, "alice", views[0].AssigneeName)
	assert.Contains(t, views[0].CreatedAgo, "3 minutes")
	assert.True(t, views[0].CanAdvance)
	assert.False(t, views[1].Assigned)
	assert.False(t, views[1].CanResolve)
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	engine, err := NewEngine(false)
	require.NoError(t, err)
	return fiber.New(fiber.Config{Views: engine})
}

func TestRenderIncludesUserAndFlashes(t *testing.T) {
	app := newTestApp(t)
	app.Get("/", func(c *fiber.Ctx) error {
		auth.SetPrincipal(c, &domain.Principal{UserID: 2, Username: "bob1", Role: domain.RoleCompany})
		AddFlash(c, FlashSuccess, "Ticket created.")
		return Render(c, http.StatusOK, "index.html", fiber.Map{
			"tickets": NewTicketViews([]domain.Ticket{{ID: 9, Title: "Printer <b>", Description: "desc", Priority: "Medium", Status: "Pending"}}, time.Now()),
		})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	html := string(body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
	assert.Contains(t, html, "bob1")
	assert.Contains(t, html, "Ticket created.")
	assert.Contains(t, html, "Printer &lt;b&gt;")
	assert.Contains(t, html, `action="/delete_ticket/9"`)
}

func TestFlashSurvivesRedirect(t *testing.T) {
	app := newTestApp(t)
	app.Get("/set", func(c *fiber.Ctx) error {
		AddFlash(c, FlashDanger, "You do not have permission to perform this action.")
		return c.Redirect("/login")
	})
	app.Get("/login", func(c *fiber.Ctx) error {
		return Render(c, http.StatusOK, "login.html", nil)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var flash *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == flashCookie {
			flash = c
		}
	}
	require.NotNil(t, flash)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(flash)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "You do not have permission to perform this action.")
	assert.Contains(t, string(body), "alert-danger")

	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == flashCookie && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared, "flash cookie is cleared once shown")
}

func TestEngineRenderAcceptsNameWithoutExtension(t *testing.T) {
	engine, err := NewEngine(false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, engine.Render(&buf, "404", nil))
	assert.True(t, strings.Contains(buf.String(), "404"))
}
