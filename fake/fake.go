// Package fake provides an in-memory TrackPro backend for testing.
//
// The server speaks the same REST contract as the real API under /v1, signs
// HS256 access tokens and exposes controls to expire tokens, reject refreshes
// and count calls per route. Mount Handler() on an httptest.Server:
//
//	backend := fake.New(fake.WithAccount("u1", "alice", "secret", trackpro.RoleAdmin))
//	ts := httptest.NewServer(backend.Handler())
//	rc := rest.NewClient(ts.URL+"/v1", store)
package fake

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	trackpro "github.com/chimerakang/trackpro-go"
)

// BasePath is the route prefix served by the fake.
const BasePath = "/v1"

// Option configures the fake server.
type Option func(*Server)

type account struct {
	trackpro.Account
	password string
}

// Server is an in-memory TrackPro API.
type Server struct {
	mu          sync.RWMutex
	secret      []byte
	ttl         time.Duration
	generation  int
	failRefresh bool

	accounts  map[string]*account // userID → account
	usernames map[string]string   // username → userID
	profiles  map[string]*trackpro.Profile
	projects  map[string]*trackpro.Project
	order     []string // project IDs in creation order
	nextPayID int64

	hits map[string]int // "METHOD /route" → count

	engine *gin.Engine
}

// WithAccount adds an activated account with a matching profile.
func WithAccount(userID, username, password string, role trackpro.Role) Option {
	return func(s *Server) {
		s.addAccount(userID, username, password, role, trackpro.AccountActivated, username, "")
	}
}

// WithProject adds a project. An empty ID is generated.
func WithProject(p trackpro.Project) Option {
	return func(s *Server) {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		s.projects[p.ID] = &p
		s.order = append(s.order, p.ID)
		for _, pay := range p.Payments {
			s.nextPayID = max(s.nextPayID, pay.ID)
		}
	}
}

// WithSecret sets the HMAC key used to sign access tokens.
func WithSecret(key []byte) Option {
	return func(s *Server) { s.secret = key }
}

// WithTokenTTL sets the lifetime of issued access tokens. Default: 15 minutes.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

// New creates a fake server.
func New(opts ...Option) *Server {
	s := &Server{
		secret:    []byte("trackpro-fake-secret"),
		ttl:       15 * time.Minute,
		accounts:  make(map[string]*account),
		usernames: make(map[string]string),
		profiles:  make(map[string]*trackpro.Profile),
		projects:  make(map[string]*trackpro.Project),
		hits:      make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler { return s.engine }

// ExpireAll invalidates every access token issued so far for regular
// routes. Expired tokens can still be exchanged at the refresh endpoint.
func (s *Server) ExpireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// FailRefresh makes the refresh endpoint answer 401 while on is true.
func (s *Server) FailRefresh(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = on
}

// Hits returns how many times a route was called, e.g.
// Hits("POST /v1/token/refresh") or Hits("GET /v1/project/:id").
func (s *Server) Hits(route string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits[route]
}

// TotalHits returns the number of calls across all routes.
func (s *Server) TotalHits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

// ResetHits zeroes all route counters.
func (s *Server) ResetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.hits)
}

// IssueToken signs a current access token for userID.
func (s *Server) IssueToken(userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return "", fmt.Errorf("trackpro/fake: unknown user %q", userID)
	}
	return s.sign(a)
}

// Project returns a copy of a stored project.
func (s *Server) Project(id string) (trackpro.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return trackpro.Project{}, false
	}
	return copyProject(p, true), true
}

// --- tokens ---

type tokenClaims struct {
	Role       trackpro.Role `json:"role"`
	Generation int           `json:"gen"`
	jwt.RegisteredClaims
}

var errStaleToken = errors.New("token expired")

// sign must be called with s.mu held.
func (s *Server) sign(a *account) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role:       a.Type,
		Generation: s.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// parse verifies the token signature. Unless allowStale is set, tokens
// past their expiry or issued before the last ExpireAll are rejected.
func (s *Server) parse(token string, allowStale bool) (*tokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if allowStale {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !allowStale && claims.Generation < s.generation {
		return nil, errStaleToken
	}
	if _, ok := s.accounts[claims.Subject]; !ok {
		return nil, fmt.Errorf("unknown subject %q", claims.Subject)
	}
	return claims, nil
}

// --- routing ---

const (
	keyUserID = "fake_user_id"
	keyRole   = "fake_role"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.count)

	v1 := r.Group(BasePath)
	v1.POST("/login", s.login)
	v1.POST("/signup", s.signup)
	v1.POST("/token/refresh", s.refresh)

	authed := v1.Group("", s.authenticate)
	authed.GET("/project", s.listProjects)
	authed.GET("/project/:id", s.getProject)
	authed.POST("/project", s.adminOnly, s.createProject)
	authed.PATCH("/project/:id", s.adminOnly, s.updateProject)
	authed.POST("/payment", s.adminOnly, s.addPayment)
	authed.GET("/profile/:id", s.getProfile)
	authed.PATCH("/profile/:id", s.updateProfile)
	authed.GET("/account", s.adminOnly, s.listAccounts)
	return r
}

func (s *Server) count(c *gin.Context) {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	s.mu.Lock()
	s.hits[c.Request.Method+" "+route]++
	s.mu.Unlock()
	c.Next()
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, trackpro.ErrorResponse{
		Status:  strconv.Itoa(status),
		Message: message,
		Error:   http.StatusText(status),
	})
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) authenticate(c *gin.Context) {
	token := bearer(c)
	if token == "" {
		fail(c, http.StatusUnauthorized, "missing authorization token")
		return
	}
	claims, err := s.parse(token, false)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid token")
		return
	}
	c.Set(keyUserID, claims.Subject)
	c.Set(keyRole, claims.Role)
	c.Next()
}

func (s *Server) adminOnly(c *gin.Context) {
	if c.GetString(keyUserID) == "" || role(c) != trackpro.RoleAdmin {
		fail(c, http.StatusForbidden, "admin only")
		return
	}
	c.Next()
}

func role(c *gin.Context) trackpro.Role {
	v, _ := c.Get(keyRole)
	r, _ := v.(trackpro.Role)
	return r
}

// canAccess reports whether the caller may read or change data owned by userID.
func canAccess(c *gin.Context, userID string) bool {
	return role(c) == trackpro.RoleAdmin || c.GetString(keyUserID) == userID
}

// --- auth ---

func (s *Server) respondAuth(c *gin.Context, status int, a *account) {
	token, err := s.sign(a)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(status, trackpro.AuthResponse{AccessToken: token, UserID: a.UserID, Role: a.Type})
}

func (s *Server) login(c *gin.Context) {
	var in trackpro.LoginUser
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[s.usernames[in.Username]]
	if !ok || a.password != in.Password {
		fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}
	s.respondAuth(c, http.StatusOK, a)
}

func (s *Server) signup(c *gin.Context) {
	var in trackpro.SignupUser
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if in.Username == "" || in.Password == "" || in.Password != in.ConfirmPassword {
		fail(c, http.StatusBadRequest, "invalid signup form")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernames[in.Username]; taken {
		fail(c, http.StatusConflict, "username already exists")
		return
	}
	a := s.addAccount(uuid.NewString(), in.Username, in.Password, trackpro.RoleClient, trackpro.AccountPending, in.FirstName, in.LastName)
	s.respondAuth(c, http.StatusCreated, a)
}

func (s *Server) refresh(c *gin.Context) {
	s.mu.RLock()
	failing := s.failRefresh
	s.mu.RUnlock()
	if failing {
		fail(c, http.StatusUnauthorized, "refresh token expired")
		return
	}

	claims, err := s.parse(bearer(c), true)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid token")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	s.respondAuth(c, http.StatusOK, s.accounts[claims.Subject])
}

// addAccount must be called with s.mu held or before the server is shared.
func (s *Server) addAccount(userID, username, password string, r trackpro.Role, st trackpro.AccountStatus, first, last string) *account {
	a := &account{
		Account: trackpro.Account{
			UserID:   userID,
			Username: username,
			Type:     r,
			Status:   st,
		},
		password: password,
	}
	s.accounts[userID] = a
	s.usernames[username] = userID
	s.profiles[userID] = &trackpro.Profile{UserID: userID, FirstName: first, LastName: last}
	return a
}

// --- projects ---

func copyProject(p *trackpro.Project, withPayments bool) trackpro.Project {
	out := *p
	out.Payments = nil
	if withPayments {
		out.Payments = append([]trackpro.Payment{}, p.Payments...)
	}
	return out
}

func (s *Server) listProjects(c *gin.Context) {
	byUID := c.Query("by_uid")
	withPayments := c.Query("returnPayment") == "true"
	if role(c) != trackpro.RoleAdmin {
		byUID = c.GetString(keyUserID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trackpro.Project, 0, len(s.order))
	for _, id := range s.order {
		p := s.projects[id]
		if byUID != "" && p.UserID != byUID {
			continue
		}
		out = append(out, copyProject(p, withPayments))
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

func (s *Server) getProject(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[c.Param("id")]
	if !ok || !canAccess(c, p.UserID) {
		fail(c, http.StatusNotFound, "project not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": copyProject(p, c.Query("returnPayment") == "true")})
}

func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func (s *Server) createProject(c *gin.Context) {
	var in trackpro.ProjectCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid price")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.accounts[in.UserID]
	if !ok {
		fail(c, http.StatusBadRequest, "unknown user")
		return
	}
	p := &trackpro.Project{
		ID:          uuid.NewString(),
		UserID:      owner.UserID,
		Username:    owner.Username,
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		Status:      in.Status,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Payments:    []trackpro.Payment{},
	}
	s.projects[p.ID] = p
	s.order = append(s.order, p.ID)
	c.JSON(http.StatusCreated, copyProject(p, true))
}

func (s *Server) updateProject(c *gin.Context) {
	var in trackpro.ProjectUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid price")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[c.Param("id")]
	if !ok {
		fail(c, http.StatusNotFound, "project not found")
		return
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = price
	p.Status = in.Status
	p.StartTime = in.StartTime
	p.EndTime = in.EndTime
	c.JSON(http.StatusOK, copyProject(p, true))
}

// --- payments ---

func (s *Server) addPayment(c *gin.Context) {
	var in trackpro.PaymentCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if in.Amount <= 0 {
		fail(c, http.StatusBadRequest, "amount must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[c.Query("pid")]
	if !ok || p.UserID != c.Query("uid") {
		fail(c, http.StatusNotFound, "project not found")
		return
	}
	s.nextPayID++
	pay := trackpro.Payment{
		ID:        s.nextPayID,
		Amount:    in.Amount,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	p.Payments = append(p.Payments, pay)
	c.JSON(http.StatusCreated, pay)
}

// --- profiles ---

func (s *Server) getProfile(c *gin.Context) {
	id := c.Param("id")
	if !canAccess(c, id) {
		fail(c, http.StatusForbidden, "forbidden")
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		fail(c, http.StatusNotFound, "profile not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": *p})
}

func (s *Server) updateProfile(c *gin.Context) {
	id := c.Param("id")
	if !canAccess(c, id) {
		fail(c, http.StatusForbidden, "forbidden")
		return
	}
	var in trackpro.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		fail(c, http.StatusNotFound, "profile not found")
		return
	}
	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.ImageURL = in.ImageURL
	p.About = in.About
	p.PhoneNumber = in.PhoneNumber
	c.JSON(http.StatusOK, gin.H{"profile": *p})
}

// --- accounts ---

func (s *Server) listAccounts(c *gin.Context) {
	withProfile := c.Query("profile") == "true"

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trackpro.Account, 0, len(s.accounts))
	for id, a := range s.accounts {
		acc := a.Account
		if withProfile {
			if p, ok := s.profiles[id]; ok {
				acc.FirstName, acc.LastName = p.FirstName, p.LastName
			}
		}
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}
