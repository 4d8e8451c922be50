// Package memory implementa los repositorios en memoria para los tests de casos
// de uso y de la API HTTP. Las transacciones no tienen rollback:
// solo reproducen el bloqueo por usuario del contador de facturas.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/appgestion-api/internal/application/billing"
	appsub "github.com/jhoicas/appgestion-api/internal/application/subscription"
	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/numbering"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
	"github.com/jhoicas/appgestion-api/internal/domain/subscription"
)

var (
	_ billing.BillingTxRunner = (*Store)(nil)
	_ appsub.TxRunner         = (*Store)(nil)
)

// Store datos de todos los repositorios.
type Store struct {
	mu        sync.Mutex
	users     map[string]entity.User
	customers map[string]entity.Customer
	materials map[string]entity.Material
	companies map[string]entity.Company
	quotes    map[string]entity.Quote
	invoices  map[string]entity.Invoice
	counters  map[string]numbering.Counter
	events    map[string]time.Time

	rowLocks lockArena
	subMu    sync.Mutex // serializa las transacciones de suscripción
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		users:     map[string]entity.User{},
		customers: map[string]entity.Customer{},
		materials: map[string]entity.Material{},
		companies: map[string]entity.Company{},
		quotes:    map[string]entity.Quote{},
		invoices:  map[string]entity.Invoice{},
		counters:  map[string]numbering.Counter{},
		events:    map[string]time.Time{},
		rowLocks:  lockArena{locks: map[string]*sync.Mutex{}},
	}
}

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) Customers() repository.CustomerRepository { return customerRepo{s} }
func (s *Store) Materials() repository.MaterialRepository { return materialRepo{s} }
func (s *Store) Companies() repository.CompanyRepository { return companyRepo{s} }
func (s *Store) Quotes() repository.QuoteRepository { return quoteRepo{s} }
func (s *Store) Invoices() repository.InvoiceRepository { return invoiceRepo{s} }
func (s *Store) WebhookEvents() repository.WebhookEventRepository { return eventRepo{s} }

// PutUser guarda el usuario tal cual, sin comprobar el email (semillas y tests).
func (s *Store) PutUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// Counter devuelve el contador guardado de un usuario (tests).
func (s *Store) Counter(userID string) (numbering.Counter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[userID]
	return c, ok
}

// RunBilling ejecuta fn con un repo de contador cuyos bloqueos se liberan al terminar.
func (s *Store) RunBilling(ctx context.Context, fn func(
	quoteRepo repository.QuoteRepository,
	invoiceRepo repository.InvoiceRepository,
	seqRepo repository.InvoiceSequenceRepository,
) error) error {
	seq := &sequenceTx{s: s, held: map[string]*sync.Mutex{}}
	defer seq.release()
	return fn(s.Quotes(), s.Invoices(), seq)
}

// RunSubscription ejecuta fn en exclusión mutua con otras transacciones de suscripción.
func (s *Store) RunSubscription(ctx context.Context, fn func(
	userRepo repository.UserRepository,
	eventRepo repository.WebhookEventRepository,
) error) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return fn(s.Users(), s.WebhookEvents())
}

// ── Bloqueos por fila ───────────────────────────────────────────────────────

type lockArena struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (a *lockArena) get(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.locks[key]
	if !ok {
		m = &sync.Mutex{}
		a.locks[key] = m
	}
	return m
}

// sequenceTx equivalente a SELECT … FOR UPDATE: el bloqueo dura hasta release.
type sequenceTx struct {
	s    *Store
	held map[string]*sync.Mutex
}

func (t *sequenceTx) lock(userID string) {
	if _, ok := t.held[userID]; ok {
		return
	}
	m := t.s.rowLocks.get(userID)
	m.Lock()
	t.held[userID] = m
}

func (t *sequenceTx) release() {
	for _, m := range t.held {
		m.Unlock()
	}
}

func (t *sequenceTx) LockByUser(ctx context.Context, userID string) (*numbering.Counter, error) {
	t.lock(userID)
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.counters[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *sequenceTx) InsertIfAbsent(ctx context.Context, counter *numbering.Counter) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.counters[counter.UserID]; !ok {
		t.s.counters[counter.UserID] = *counter
	}
	return nil
}

func (t *sequenceTx) Save(ctx context.Context, counter *numbering.Counter) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.counters[counter.UserID] = *counter
	return nil
}

// ── Usuarios ────────────────────────────────────────────────────────────────

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r userRepo) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*entity.User, error) {
	if subscriptionID == "" {
		return nil, nil
	}
	return r.find(func(u entity.User) bool { return u.Subscription.SubscriptionID == subscriptionID }), nil
}

func (r userRepo) find(match func(entity.User) bool) *entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return &u
		}
	}
	return nil
}

func (r userRepo) UpdateSubscription(ctx context.Context, userID string, acc subscription.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Subscription = acc
	r.s.users[userID] = u
	return nil
}

func (r userRepo) ListTrialOverdue(ctx context.Context, today time.Time) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if u.Subscription.TrialOverdue(today) {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r userRepo) ListSubscriptionRecords(ctx context.Context) ([]repository.SubscriptionRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]repository.SubscriptionRecord, 0, len(r.s.users))
	for _, u := range r.s.users {
		acc := u.Subscription
		raw := string(acc.Status)
		acc.Status = ""
		out = append(out, repository.SubscriptionRecord{UserID: u.ID, RawStatus: raw, Account: acc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type eventRepo struct{ s *Store }

func (r eventRepo) Exists(ctx context.Context, eventID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.events[eventID]
	return ok, nil
}

func (r eventRepo) Record(ctx context.Context, eventID string, processedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[eventID]; !ok {
		r.s.events[eventID] = processedAt
	}
	return nil
}

// ── Clientes, materiales y empresa ──────────────────────────────────────────

type customerRepo struct{ s *Store }

func (r customerRepo) Create(ctx context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.customers[c.ID] = *c
	return nil
}

func (r customerRepo) GetByID(ctx context.Context, id, userID string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return &c, nil
}

func (r customerRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Customer
	for _, c := range r.s.customers {
		if c.UserID == userID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r customerRepo) Update(ctx context.Context, c *entity.Customer) error {
	return r.Create(ctx, c)
}

func (r customerRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok || c.UserID != userID {
		return false, nil
	}
	delete(r.s.customers, id)
	return true, nil
}

type materialRepo struct{ s *Store }

func (r materialRepo) Create(ctx context.Context, m *entity.Material) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.materials[m.ID] = *m
	return nil
}

func (r materialRepo) GetByID(ctx context.Context, id, userID string) (*entity.Material, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.materials[id]
	if !ok || m.UserID != userID {
		return nil, nil
	}
	return &m, nil
}

func (r materialRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Material, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Material
	for _, m := range r.s.materials {
		if m.UserID == userID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r materialRepo) Update(ctx context.Context, m *entity.Material) error {
	return r.Create(ctx, m)
}

func (r materialRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.materials[id]
	if !ok || m.UserID != userID {
		return false, nil
	}
	delete(r.s.materials, id)
	return true, nil
}

type companyRepo struct{ s *Store }

func (r companyRepo) GetByUser(ctx context.Context, userID string) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r companyRepo) Upsert(ctx context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.companies[c.UserID] = *c
	return nil
}

// ── Documentos ──────────────────────────────────────────────────────────────

type quoteRepo struct{ s *Store }

func (r quoteRepo) Create(ctx context.Context, q *entity.Quote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.quotes[q.ID] = copyQuote(*q)
	return nil
}

func (r quoteRepo) Update(ctx context.Context, q *entity.Quote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.quotes[q.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.quotes[q.ID] = copyQuote(*q)
	return nil
}

func (r quoteRepo) GetByID(ctx context.Context, id, userID string) (*entity.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.quotes[id]
	if !ok || q.UserID != userID {
		return nil, nil
	}
	return r.s.resolveQuote(q), nil
}

func (r quoteRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Quote
	for _, q := range r.s.quotes {
		if q.UserID == userID {
			out = append(out, r.s.resolveQuote(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r quoteRepo) SetStatus(ctx context.Context, id, userID, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.quotes[id]
	if !ok || q.UserID != userID {
		return domain.ErrNotFound
	}
	q.Status = status
	r.s.quotes[id] = q
	return nil
}

func (r quoteRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.quotes[id]
	if !ok || q.UserID != userID {
		return false, nil
	}
	delete(r.s.quotes, id)
	return true, nil
}

type invoiceRepo struct{ s *Store }

func (r invoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.numberTaken(inv.UserID, inv.Number, inv.ID) {
		return domain.ErrNumberConflict
	}
	r.s.invoices[inv.ID] = copyInvoice(*inv)
	return nil
}

func (r invoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.s.numberTaken(inv.UserID, inv.Number, inv.ID) {
		return domain.ErrNumberConflict
	}
	r.s.invoices[inv.ID] = copyInvoice(*inv)
	return nil
}

func (r invoiceRepo) GetByID(ctx context.Context, id, userID string) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, nil
	}
	return r.s.resolveInvoice(inv), nil
}

func (r invoiceRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.UserID == userID {
			out = append(out, r.s.resolveInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r invoiceRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.UserID != userID {
		return false, nil
	}
	delete(r.s.invoices, id)
	return true, nil
}

func (r invoiceRepo) NumberExists(ctx context.Context, userID, number string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.numberTaken(userID, number, ""), nil
}

func (r invoiceRepo) MaxNumberWithPrefix(ctx context.Context, userID, prefix string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	last := 0
	for _, inv := range r.s.invoices {
		if inv.UserID != userID || !strings.HasPrefix(inv.Number, prefix) {
			continue
		}
		if _, _, n, err := numbering.Parse(inv.Number); err == nil && n > last {
			last = n
		}
	}
	return last, nil
}

// numberTaken requiere s.mu tomado.
func (s *Store) numberTaken(userID, number, exceptID string) bool {
	for id, inv := range s.invoices {
		if id != exceptID && inv.UserID == userID && inv.Number == number {
			return true
		}
	}
	return false
}

// resolveQuote completa nombres de cliente y material como haría un JOIN. Requiere s.mu.
func (s *Store) resolveQuote(q entity.Quote) *entity.Quote {
	q = copyQuote(q)
	if c, ok := s.customers[q.CustomerID]; ok {
		q.CustomerName, q.CustomerEmail = c.Name, c.Email
	}
	for i := range q.Items {
		q.Items[i].Kind = s.resolveKind(q.Items[i].Kind)
	}
	return &q
}

func (s *Store) resolveInvoice(inv entity.Invoice) *entity.Invoice {
	inv = copyInvoice(inv)
	if c, ok := s.customers[inv.CustomerID]; ok {
		inv.CustomerName, inv.CustomerEmail = c.Name, c.Email
	}
	for i := range inv.Items {
		inv.Items[i].Kind = s.resolveKind(inv.Items[i].Kind)
	}
	return &inv
}

func (s *Store) resolveKind(k entity.LineKind) entity.LineKind {
	ml, ok := k.(entity.MaterialLine)
	if !ok {
		return k
	}
	ml.Name = ""
	if m, ok := s.materials[ml.MaterialID]; ok {
		ml.Name = m.Name
	}
	return ml
}

func copyQuote(q entity.Quote) entity.Quote {
	q.Items = append([]entity.QuoteItem(nil), q.Items...)
	return q
}

func copyInvoice(inv entity.Invoice) entity.Invoice {
	inv.Items = append([]entity.InvoiceItem(nil), inv.Items...)
	return inv
}
