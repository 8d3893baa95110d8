// Package apitest runs an in-memory implementation of the shopkeeper HTTP
// API on an httptest.Server. It exists for tests only: users, tokens and
// products live in maps and vanish with the server.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of tokens issued by login and register.
const TokenTTL = time.Hour

type account struct {
	user     models.User
	password string
}

// Server is the fake API.
type Server struct {
	*httptest.Server

	secret []byte
	hits   atomic.Int64

	mu            sync.Mutex
	accounts      map[string]*account
	products      map[int64]*models.Product
	revoked       map[string]struct{}
	issued        []string
	nextUserID    int64
	nextProductID int64
	listHook      func(search string)
}

// New starts a fake server and closes it when t finishes.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:   []byte("apitest-secret"),
		accounts: make(map[string]*account),
		products: make(map[int64]*models.Product),
		revoked:  make(map[string]struct{}),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.count)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.With(s.authenticate).Post("/logout", s.logout)
		r.With(s.authenticate).Get("/me", s.me)
	})

	r.Route("/products", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/", s.createProduct)
		r.Get("/", s.listProducts)
		r.Get("/{id}", s.getProduct)
		r.Put("/{id}", s.updateProduct)
		r.Delete("/{id}", s.deleteProduct)
	})
	return r
}

// Hits returns the number of requests served so far.
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

// SetListHook installs fn to run before every list response; tests use it
// to delay particular searches.
func (s *Server) SetListHook(fn func(search string)) {
	s.mu.Lock()
	s.listHook = fn
	s.mu.Unlock()
}

// AddUser creates an account directly.
func (s *Server) AddUser(username, email, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password)
}

func (s *Server) addUserLocked(username, email, password string) models.User {
	s.nextUserID++
	u := models.User{ID: s.nextUserID, Username: username, Email: email}
	s.accounts[username] = &account{user: u, password: password}
	return u
}

// IssueToken signs a token for userID valid for ttl (negative ttl yields an
// already expired token).
func (s *Server) IssueToken(userID int64, ttl time.Duration) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	s.issued = append(s.issued, signed)
	s.mu.Unlock()
	return signed
}

// Revoke invalidates token as if it had been logged out elsewhere.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	s.revoked[token] = struct{}{}
	s.mu.Unlock()
}

// RevokeAll invalidates every token issued so far.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	for _, tok := range s.issued {
		s.revoked[tok] = struct{}{}
	}
	s.mu.Unlock()
}

// SeedProducts inserts n products named "Product 1".."Product n".
func (s *Server) SeedProducts(n int) []models.Product {
	out := make([]models.Product, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, s.AddProduct(models.CreateProductRequest{
			Name:        "Product " + strconv.Itoa(i),
			Description: "seeded item",
			Price:       float64(i),
			Stock:       i,
		}))
	}
	return out
}

// AddProduct inserts a product directly.
func (s *Server) AddProduct(req models.CreateProductRequest) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.addProductLocked(req)
}

func (s *Server) addProductLocked(req models.CreateProductRequest) *models.Product {
	s.nextProductID++
	now := time.Now().UTC()
	p := &models.Product{
		ID:          s.nextProductID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.products[p.ID] = p
	return p
}

// Product returns the stored product with id.
func (s *Server) Product(id int64) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, false
	}
	return *p, true
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing token", nil)
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token", nil)
			return
		}

		s.mu.Lock()
		_, revoked := s.revoked[token]
		s.mu.Unlock()
		if revoked {
			writeError(w, http.StatusUnauthorized, "token revoked", nil)
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token", nil)
			return
		}

		r = r.WithContext(contextWith(r, userID, token))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	fields := map[string]string{}
	if len(req.Username) < 3 {
		fields["username"] = "must be at least 3 characters"
	}
	if !strings.Contains(req.Email, "@") {
		fields["email"] = "must be a valid email"
	}
	if len(req.Password) < 6 {
		fields["password"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "invalid registration", fields)
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Username]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "username already taken", map[string]string{"username": "already taken"})
		return
	}
	u := s.addUserLocked(req.Username, req.Email, req.Password)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.AuthResponse{Token: s.IssueToken(u.ID, TokenTTL), User: u})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid username or password", nil)
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{Token: s.IssueToken(acc.user.ID, TokenTTL), User: acc.user})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.Revoke(tokenFrom(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "logout success"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id := userIDFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			writeJSON(w, http.StatusOK, acc.user)
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "unknown user", nil)
}

func productFields(name *string, price *float64, stock *int) map[string]string {
	fields := map[string]string{}
	if name != nil && strings.TrimSpace(*name) == "" {
		fields["name"] = "is required"
	}
	if price != nil && *price < 0 {
		fields["price"] = "must be greater than or equal to 0"
	}
	if stock != nil && *stock < 0 {
		fields["stock"] = "must be greater than or equal to 0"
	}
	return fields
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := productFields(&req.Name, &req.Price, &req.Stock); len(fields) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid product", fields)
		return
	}

	s.mu.Lock()
	p := *s.addProductLocked(req)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, found := s.Product(id)
	if !found {
		writeError(w, http.StatusNotFound, "product not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateProductRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := productFields(req.Name, req.Price, req.Stock); len(fields) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid product", fields)
		return
	}

	s.mu.Lock()
	p, found := s.products[id]
	if !found {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "product not found", nil)
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	p.UpdatedAt = time.Now().UTC()
	out := *p
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	_, found := s.products[id]
	delete(s.products, id)
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "product not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted successfully"})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	params := models.ListParams{Page: page, Limit: limit, Search: q.Get("search")}.Normalize()

	s.mu.Lock()
	hook := s.listHook
	needle := strings.ToLower(params.Search)
	matched := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			matched = append(matched, *p)
		}
	}
	s.mu.Unlock()

	if hook != nil {
		hook(params.Search)
	}

	slices.SortFunc(matched, func(a, b models.Product) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	total := len(matched)
	start := min((params.Page-1)*params.Limit, total)
	end := min(start+params.Limit, total)

	writeJSON(w, http.StatusOK, map[string]any{
		"products": matched[start:end],
		"meta": map[string]int{
			"total":       total,
			"page":        params.Page,
			"limit":       params.Limit,
			"total_pages": models.TotalPagesFor(total, params.Limit),
		},
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	body := map[string]any{"error": msg}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	writeJSON(w, status, body)
}

type identity struct {
	userID int64
	token  string
}

func contextWith(r *http.Request, userID int64, token string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, identity{userID: userID, token: token})
}

func userIDFrom(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxKey{}).(identity)
	return id.userID
}

func tokenFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(identity)
	return id.token
}
