package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/profilehub/profilehub/internal/domain/block"
	"github.com/profilehub/profilehub/internal/domain/profile"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
)

// Store keeps everything behind a single mutex so every mutating operation,
// the bootstrap seed included, is one atomic critical section. It backs the
// handler and flow tests and doubles as a DB-less dev mode.
type Store struct {
	mu          sync.RWMutex
	initialized bool
	roles       map[string]role.Role      // keyed by name
	users       map[string]user.User      // keyed by id
	profiles    map[string]profile.Profile // keyed by owning user id
	blocks      map[string]block.TextBlock // keyed by search name
}

func NewStore() *Store {
	return &Store{
		roles:    make(map[string]role.Role),
		users:    make(map[string]user.User),
		profiles: make(map[string]profile.Profile),
		blocks:   make(map[string]block.TextBlock),
	}
}

// bootstrap.Store

func (s *Store) Initialized(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.initialized, nil
}

func (s *Store) Initialize(ctx context.Context, roles []role.Role, owner user.User, ownerProfile profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// recheck under the write lock: two racing init calls serialize here
	if s.initialized {
		return nil
	}

	for _, r := range roles {
		if _, exists := s.roles[r.Name]; exists {
			return role.ErrDuplicateName
		}
	}

	for _, u := range s.users {
		if u.Email == owner.Email {
			return user.ErrDuplicateEmail
		}
	}

	for _, r := range roles {
		s.roles[r.Name] = r
	}
	s.users[owner.ID] = owner
	s.profiles[owner.ID] = ownerProfile
	s.initialized = true

	return nil
}

// roles.Store

func (s *Store) CreateRole(ctx context.Context, r role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roles[r.Name]; exists {
		return role.ErrDuplicateName
	}

	s.roles[r.Name] = r

	return nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[name]

	if !ok {
		return role.Role{}, role.ErrNotFound
	}

	return r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]role.Role, 0, len(s.roles))

	for _, r := range s.roles {
		out = append(out, r)
	}

	// stable output; callers treat the list as a set but tests are easier
	// to read when the order is deterministic
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })

	return out, nil
}

func (s *Store) UpdateRole(ctx context.Context, name string, apply func(current role.Role) (role.Role, error)) (role.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.roles[name]

	if !ok {
		return role.Role{}, role.ErrNotFound
	}

	updated, err := apply(current)

	if err != nil {
		return role.Role{}, err
	}

	if updated.Name != name {
		if _, exists := s.roles[updated.Name]; exists {
			return role.Role{}, role.ErrDuplicateName
		}

		delete(s.roles, name)

		// keep account references in step with the rename
		for id, u := range s.users {
			if u.Role == name {
				u.Role = updated.Name
				s.users[id] = u
			}
		}
	}

	s.roles[updated.Name] = updated

	return updated, nil
}

func (s *Store) DeleteRole(ctx context.Context, name string, allowed func(current role.Role) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.roles[name]

	if !ok {
		return role.ErrNotFound
	}

	err := allowed(current)

	if err != nil {
		return err
	}

	for _, u := range s.users {
		if u.Role == name {
			return role.ErrInUse
		}
	}

	delete(s.roles, name)

	return nil
}

// users.Store

func (s *Store) GetUserByID(ctx context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (s *Store) SetUserRole(ctx context.Context, userID, roleName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]

	if !ok {
		return user.ErrNotFound
	}

	if _, exists := s.roles[roleName]; !exists {
		return role.ErrNotFound
	}

	u.Role = roleName
	s.users[userID] = u

	return nil
}

// profiles.Store

func (s *Store) CreateUserWithProfile(ctx context.Context, u user.User, p profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return user.ErrDuplicateEmail
		}
	}

	s.users[u.ID] = u
	s.profiles[u.ID] = p

	return nil
}

func (s *Store) view(u user.User, p profile.Profile) profile.View {
	return profile.View{
		Profile: p,
		User: profile.Owner{
			ID:    u.ID,
			Email: u.Email,
			Role:  u.Role,
		},
	}
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (profile.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, u := range s.users {
		if u.Email == email {
			p, ok := s.profiles[id]

			if !ok {
				return profile.View{}, profile.ErrNotFound
			}

			return s.view(u, p), nil
		}
	}

	return profile.View{}, profile.ErrNotFound
}

func (s *Store) ListProfiles(ctx context.Context) ([]profile.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]profile.View, 0, len(s.profiles))

	for id, p := range s.profiles {
		u, ok := s.users[id]

		if !ok {
			continue
		}

		out = append(out, s.view(u, p))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, email string, apply func(current profile.Profile) profile.Profile) (profile.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if u.Email == email {
			p, ok := s.profiles[id]

			if !ok {
				return profile.View{}, profile.ErrNotFound
			}

			updated := apply(p)
			s.profiles[id] = updated

			return s.view(u, updated), nil
		}
	}

	return profile.View{}, profile.ErrNotFound
}

func (s *Store) DeleteProfileByEmail(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if u.Email == email {
			delete(s.profiles, id)
			delete(s.users, id)

			return nil
		}
	}

	return profile.ErrNotFound
}

// blocks.Store

func (s *Store) CreateBlock(ctx context.Context, b block.TextBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blocks[b.SearchName]; exists {
		return block.ErrDuplicateSearchName
	}

	s.blocks[b.SearchName] = b

	return nil
}

func (s *Store) GetBlockBySearchName(ctx context.Context, searchName string) (block.TextBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blocks[searchName]

	if !ok {
		return block.TextBlock{}, block.ErrNotFound
	}

	return b, nil
}

func (s *Store) ListBlocks(ctx context.Context, group string) ([]block.TextBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]block.TextBlock, 0, len(s.blocks))

	for _, b := range s.blocks {
		if group != "" && b.Group != group {
			continue
		}

		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

func (s *Store) UpdateBlock(ctx context.Context, searchName string, apply func(current block.TextBlock) block.TextBlock) (block.TextBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.blocks[searchName]

	if !ok {
		return block.TextBlock{}, block.ErrNotFound
	}

	updated := apply(current)
	s.blocks[searchName] = updated

	return updated, nil
}

func (s *Store) DeleteBlock(ctx context.Context, searchName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocks[searchName]; !ok {
		return block.ErrNotFound
	}

	delete(s.blocks, searchName)

	return nil
}
