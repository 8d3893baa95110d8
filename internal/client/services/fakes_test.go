package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
)

type fakeAuth struct {
	mu    sync.Mutex
	token string
	hook  func(string)
	calls map[string]int

	loginResp    *models.AuthResponse
	loginErr     error
	registerResp *models.AuthResponse
	registerErr  error
	logoutErr    error
	meUser       *models.User
	meErr        error
	// meToken records the transport credential seen by the last Me call.
	meToken string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{calls: make(map[string]int)}
}

func (f *fakeAuth) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAuth) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAuth) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeAuth) ClearToken() { f.SetToken("") }

func (f *fakeAuth) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeAuth) OnUnauthorized(fn func(string)) {
	f.mu.Lock()
	f.hook = fn
	f.mu.Unlock()
}

func (f *fakeAuth) fireUnauthorized(token string) {
	f.mu.Lock()
	fn := f.hook
	f.mu.Unlock()
	fn(token)
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	f.record("login")
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error) {
	f.record("register")
	return f.registerResp, f.registerErr
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.record("logout")
	return f.logoutErr
}

func (f *fakeAuth) Me(ctx context.Context) (*models.User, error) {
	f.record("me")
	f.mu.Lock()
	f.meToken = f.token
	f.mu.Unlock()
	return f.meUser, f.meErr
}

type memStore struct {
	mu      sync.Mutex
	token   string
	loadErr error
	saveErr error
	clears  int
}

func (s *memStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.loadErr
}

func (s *memStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.token = token
	return nil
}

func (s *memStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.token = ""
	return nil
}

func (s *memStore) stored() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}
