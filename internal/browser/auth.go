package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/skilltree/skilltree-e2e/internal/client"
	"github.com/skilltree/skilltree-e2e/internal/selectors"
)

// Session roles.
const (
	RoleAnonymous = ""
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleRoot      = "root"
	RoleProxy     = "proxy"
)

// Session is who the browser and the fixture client are acting as.
type Session struct {
	User   string
	Role   string
	Client *client.Client
}

// Anonymous reports whether no user is signed in.
func (s Session) Anonymous() bool {
	return s.User == ""
}

// Auth signs the browser and its fixture client in and out together.
// Sessions are linear: anonymous, then one role, then anonymous again.
type Auth struct {
	h       *Helper
	client  *client.Client
	session Session
}

// NewAuth pairs a helper with the client its fixtures are created through.
func NewAuth(h *Helper, c *client.Client) *Auth {
	return &Auth{h: h, client: c, session: Session{Client: c}}
}

// Session returns the current session.
func (a *Auth) Session() Session {
	return a.session
}

// Login signs in as user, discarding any prior session first. When the
// UI login form is unavailable the session is created over the API and
// its cookies copied into the browser.
func (a *Auth) Login(ctx context.Context, user, password string) (Session, error) {
	return a.login(ctx, user, password, a.roleOf(user))
}

// LoginAsRootUser signs in as the configured root user.
func (a *Auth) LoginAsRootUser(ctx context.Context) (Session, error) {
	u := a.h.Config.Users
	return a.login(ctx, u.RootUser, u.Password, RoleRoot)
}

// LoginAsAdminUser signs in as the configured project admin.
func (a *Auth) LoginAsAdminUser(ctx context.Context) (Session, error) {
	u := a.h.Config.Users
	return a.login(ctx, u.AdminUser, u.Password, RoleAdmin)
}

// LoginAsProxyUser signs in as the environment's proxy user.
func (a *Auth) LoginAsProxyUser(ctx context.Context) (Session, error) {
	return a.login(ctx, a.h.Config.Env.ProxyUser, a.h.Config.Users.ProxyPassword, RoleProxy)
}

func (a *Auth) roleOf(user string) string {
	switch {
	case strings.EqualFold(user, a.h.Config.Users.RootUser):
		return RoleRoot
	case strings.EqualFold(user, a.h.Config.Users.AdminUser):
		return RoleAdmin
	case strings.EqualFold(user, a.h.Config.Env.ProxyUser):
		return RoleProxy
	}
	return RoleUser
}

func (a *Auth) login(ctx context.Context, user, password, role string) (Session, error) {
	if !a.session.Anonymous() {
		if err := a.Logout(ctx); err != nil {
			return a.session, err
		}
	}

	if err := a.client.Login(ctx, user, password); err != nil {
		return a.session, fmt.Errorf("login %s: %w", user, err)
	}

	if a.h.Config.Env.UseAPILogin() {
		if err := a.copyCookies(); err != nil {
			return a.session, err
		}
	} else if err := a.loginForm(user, password); err != nil {
		return a.session, err
	}

	a.session = Session{User: user, Role: role, Client: a.client}
	a.h.log.Info().Str("user", user).Str("role", role).Bool("api", a.h.Config.Env.UseAPILogin()).Msg("logged in")
	return a.session, nil
}

func (a *Auth) loginForm(user, password string) error {
	if err := a.h.Visit("/skills-login"); err != nil {
		return fmt.Errorf("failed to navigate to login: %w", err)
	}

	username := a.h.Page.Locator(selectors.LoginUsername)
	if err := username.WaitFor(); err != nil {
		return fmt.Errorf("username input not found: %w", err)
	}
	if err := username.Fill(user); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}
	if err := a.h.Page.Locator(selectors.LoginPassword).Fill(password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := a.h.Page.Locator(selectors.LoginSubmit).Click(); err != nil {
		return fmt.Errorf("failed to click login: %w", err)
	}
	if err := a.h.WaitForNetworkIdle(); err != nil {
		return fmt.Errorf("failed waiting for login response: %w", err)
	}

	errMsg := a.h.Page.Locator(selectors.LoginError)
	if count, _ := errMsg.Count(); count > 0 {
		text, _ := errMsg.First().TextContent()
		return fmt.Errorf("login failed: %s", strings.TrimSpace(text))
	}
	return nil
}

// copyCookies moves the fixture client's session cookies into the
// browser context.
func (a *Auth) copyCookies() error {
	cookies := toBrowserCookies(a.client.Cookies(), a.client.BaseURL())
	if len(cookies) == 0 {
		return fmt.Errorf("api login returned no session cookies")
	}
	if err := a.h.Context.AddCookies(cookies); err != nil {
		return fmt.Errorf("copy session cookies into browser: %w", err)
	}
	return nil
}

func toBrowserCookies(cookies []*http.Cookie, baseURL string) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, playwright.OptionalCookie{
			Name:  c.Name,
			Value: c.Value,
			URL:   playwright.String(baseURL),
		})
	}
	return out
}

// Logout ends the session in the browser and the client.
func (a *Auth) Logout(ctx context.Context) error {
	if a.session.Anonymous() {
		return nil
	}
	user := a.session.User
	if err := a.client.Logout(ctx); err != nil {
		a.h.log.Warn().Err(err).Str("user", user).Msg("api logout failed")
	}

	btn := a.h.Page.Locator(selectors.LogoutButton)
	if count, _ := btn.Count(); count > 0 {
		if err := btn.First().Click(); err != nil {
			a.h.log.Debug().Err(err).Msg("logout button click failed")
		}
	}
	if err := a.h.Context.ClearCookies(); err != nil {
		return fmt.Errorf("clear browser cookies: %w", err)
	}

	a.session = Session{Client: a.client}
	a.h.log.Info().Str("user", user).Msg("logged out")
	return nil
}

// Register creates an account and leaves it signed in. With root set the
// account is the instance's first root user.
func (a *Auth) Register(ctx context.Context, user, password string, root bool) (Session, error) {
	if err := a.Logout(ctx); err != nil {
		return a.session, err
	}
	role := RoleUser
	if root {
		role = RoleRoot
	}

	if a.h.Config.Env.UseAPILogin() {
		if err := a.client.CreateAccount(ctx, user, password, root); err != nil {
			return a.session, fmt.Errorf("register %s: %w", user, err)
		}
		if err := a.copyCookies(); err != nil {
			return a.session, err
		}
	} else {
		if err := a.registerForm(user, password, root); err != nil {
			return a.session, err
		}
		if err := a.client.Login(ctx, user, password); err != nil {
			return a.session, fmt.Errorf("login registered user %s: %w", user, err)
		}
	}

	a.session = Session{User: user, Role: role, Client: a.client}
	a.h.log.Info().Str("user", user).Bool("root", root).Msg("registered")
	return a.session, nil
}

func (a *Auth) registerForm(user, password string, root bool) error {
	path := "/request-account"
	if root {
		path = "/request-root-account"
	}
	if err := a.h.Visit(path); err != nil {
		return err
	}
	fields := []struct{ sel, value string }{
		{selectors.RegisterFirst, "Person"},
		{selectors.RegisterLast, "Three"},
		{selectors.RegisterEmail, user},
		{selectors.RegisterPass, password},
		{selectors.RegisterConfirm, password},
	}
	for _, f := range fields {
		if err := a.h.Page.Locator(f.sel).Fill(f.value); err != nil {
			return fmt.Errorf("fill %s: %w", f.sel, err)
		}
	}
	if err := a.h.Page.Locator(selectors.RegisterSubmit).Click(); err != nil {
		return fmt.Errorf("submit registration: %w", err)
	}
	return a.h.WaitForNetworkIdle()
}
