package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/permissions"
	"github.com/imyashkale/geoconnect/internal/repository"
)

type fakeServerRepo struct {
	mu        sync.Mutex
	servers   map[string]models.Server
	deleteErr error
}

func newFakeServerRepo() *fakeServerRepo {
	return &fakeServerRepo{servers: map[string]models.Server{}}
}

func (r *fakeServerRepo) Create(ctx context.Context, server *models.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.servers {
		if s.ServerType == server.ServerType && s.URL == server.URL {
			return repository.ErrAlreadyExists
		}
	}
	r.servers[server.Id] = copyServer(server)
	return nil
}

func (r *fakeServerRepo) GetByID(ctx context.Context, id string) (*models.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyServer(&s)
	return &out, nil
}

func (r *fakeServerRepo) GetAll(ctx context.Context) ([]*models.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Server, 0, len(r.servers))
	for _, s := range r.servers {
		c := copyServer(&s)
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeServerRepo) Update(ctx context.Context, server *models.Server, previousURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.servers[server.Id]; !ok {
		return repository.ErrNotFound
	}
	for id, s := range r.servers {
		if id != server.Id && s.ServerType == server.ServerType && s.URL == server.URL {
			return repository.ErrAlreadyExists
		}
	}
	r.servers[server.Id] = copyServer(server)
	return nil
}

func (r *fakeServerRepo) UpdateLiveness(ctx context.Context, id string, alive bool, checkedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Alive = alive
	s.LastCheckedAt = &checkedAt
	r.servers[id] = s
	return nil
}

func (r *fakeServerRepo) Delete(ctx context.Context, server *models.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.servers[server.Id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.servers, server.Id)
	return nil
}

func copyServer(s *models.Server) models.Server {
	return models.Server{
		Id: s.Id, Title: s.Title, OwnerId: s.OwnerId, ServerType: s.ServerType, URL: s.URL,
		Operations: s.Operations, Alive: s.Alive, LastCheckedAt: s.LastCheckedAt,
		CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

type simpleRow struct{ username, password string }
type tokenRow struct{ token, prefix string }

type fakeConnRepo struct {
	bases  map[string]models.Connection
	simple map[string]simpleRow
	token  map[string]tokenRow

	lookupErr   error
	simpleLoads int
	tokenLoads  int
}

func newFakeConnRepo() *fakeConnRepo {
	return &fakeConnRepo{
		bases:  map[string]models.Connection{},
		simple: map[string]simpleRow{},
		token:  map[string]tokenRow{},
	}
}

func baseCopy(c *models.Connection) models.Connection {
	return models.Connection{
		Id: c.Id, Title: c.Title, OwnerId: c.OwnerId, ServerId: c.ServerId,
		AuthType: c.AuthType, Kind: c.Kind, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func (r *fakeConnRepo) checkUnique(conn *models.Connection) error {
	for _, b := range r.bases {
		if b.ServerId == conn.ServerId && b.OwnerId == conn.OwnerId {
			return repository.ErrAlreadyExists
		}
	}
	return nil
}

func (r *fakeConnRepo) CreateSimpleAuth(ctx context.Context, conn *models.SimpleAuthConnection) error {
	if err := r.checkUnique(&conn.Connection); err != nil {
		return err
	}
	r.bases[conn.Id] = baseCopy(&conn.Connection)
	r.simple[conn.Id] = simpleRow{conn.Username, conn.Password}
	return nil
}

func (r *fakeConnRepo) CreateTokenAuth(ctx context.Context, conn *models.TokenAuthConnection) error {
	if err := r.checkUnique(&conn.Connection); err != nil {
		return err
	}
	r.bases[conn.Id] = baseCopy(&conn.Connection)
	r.token[conn.Id] = tokenRow{conn.Token, conn.Prefix}
	return nil
}

func (r *fakeConnRepo) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	b, ok := r.bases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := baseCopy(&b)
	return &c, nil
}

func (r *fakeConnRepo) List(ctx context.Context, filter repository.ConnectionFilter) ([]*models.Connection, error) {
	ids := make([]string, 0, len(r.bases))
	for id := range r.bases {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*models.Connection
	for _, id := range ids {
		b := r.bases[id]
		if filter.OwnerId != "" && b.OwnerId != filter.OwnerId {
			continue
		}
		if filter.ServerId != "" && b.ServerId != filter.ServerId {
			continue
		}
		c := baseCopy(&b)
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeConnRepo) Delete(ctx context.Context, conn *models.Connection) error {
	if _, ok := r.bases[conn.Id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.bases, conn.Id)
	delete(r.simple, conn.Id)
	delete(r.token, conn.Id)
	return nil
}

func (r *fakeConnRepo) GetSimpleAuth(ctx context.Context, base *models.Connection) (*models.SimpleAuthConnection, error) {
	r.simpleLoads++
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	row, ok := r.simple[base.Id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.SimpleAuthConnection{Connection: baseCopy(base), Username: row.username, Password: row.password}, nil
}

func (r *fakeConnRepo) GetTokenAuth(ctx context.Context, base *models.Connection) (*models.TokenAuthConnection, error) {
	r.tokenLoads++
	row, ok := r.token[base.Id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.TokenAuthConnection{Connection: baseCopy(base), Token: row.token, Prefix: row.prefix}, nil
}

type grantKey struct {
	kind         models.PermissionKind
	principal    string
	connectionID string
}

type fakePermStore struct {
	principals map[string]*permissions.Principal
	grants     map[grantKey]bool
	assignErr  error
}

func newFakePermStore(principals ...*permissions.Principal) *fakePermStore {
	s := &fakePermStore{principals: map[string]*permissions.Principal{}, grants: map[grantKey]bool{}}
	for _, p := range principals {
		s.principals[p.ID] = p
	}
	return s
}

func (s *fakePermStore) AssignPermission(ctx context.Context, kind models.PermissionKind, principalID, connectionID string) error {
	if s.assignErr != nil {
		return s.assignErr
	}
	s.grants[grantKey{kind, principalID, connectionID}] = true
	return nil
}

func (s *fakePermStore) HasPermission(ctx context.Context, kind models.PermissionKind, principalID, connectionID string) (bool, error) {
	return s.grants[grantKey{kind, principalID, connectionID}], nil
}

func (s *fakePermStore) ListAdministrators(ctx context.Context) ([]*permissions.Principal, error) {
	var ids []string
	for id, p := range s.principals {
		if p.IsAdmin {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]*permissions.Principal, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.principals[id])
	}
	return out, nil
}

func (s *fakePermStore) GetPrincipal(ctx context.Context, id string) (*permissions.Principal, error) {
	p, ok := s.principals[id]
	if !ok {
		return nil, permissions.ErrPrincipalNotFound
	}
	return p, nil
}

func (s *fakePermStore) UpsertPrincipal(ctx context.Context, p *permissions.Principal) error {
	s.principals[p.ID] = p
	return nil
}

func (s *fakePermStore) RevokeConnection(ctx context.Context, connectionID string) error {
	for k := range s.grants {
		if k.connectionID == connectionID {
			delete(s.grants, k)
		}
	}
	return nil
}

// grantsFor lists the granted (principal, kind) pairs on a connection
func (s *fakePermStore) grantsFor(connectionID string) []string {
	var out []string
	for k := range s.grants {
		if k.connectionID == connectionID {
			out = append(out, k.principal+":"+string(k.kind))
		}
	}
	sort.Strings(out)
	return out
}

var errBackend = errors.New("backend unavailable")
