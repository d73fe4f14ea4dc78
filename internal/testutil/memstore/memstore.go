// Package memstore хранилище в памяти для тестов use case и хендлеров.
// Повторяет контракт постгрес адаптеров: условные обновления, уникальные индексы, sentinel ошибки.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type Store struct {
	mu sync.Mutex

	Listings      map[uuid.UUID]*entity.Listing
	Jobs          map[uuid.UUID]*entity.Job
	Bids          map[uuid.UUID]*entity.Bid
	Orders        map[uuid.UUID]*entity.Order
	Deliveries    map[uuid.UUID][]entity.Delivery
	Reviews       []*entity.Review
	Profiles      map[uuid.UUID]*entity.Profile
	Users         map[uuid.UUID]*entity.User
	Sessions      map[string]*entity.Session
	Wallets       map[uuid.UUID]*entity.Wallet
	Transactions  []*entity.Transaction
	Conversations map[uuid.UUID]*entity.Conversation
	Messages      map[uuid.UUID]*entity.Message

	// Referenced объявления, удаление которых нарушит внешний ключ.
	Referenced map[uuid.UUID]bool

	// Calls счётчик обращений к любому репозиторию.
	Calls int
}

func New() *Store {
	return &Store{
		Listings:      make(map[uuid.UUID]*entity.Listing),
		Jobs:          make(map[uuid.UUID]*entity.Job),
		Bids:          make(map[uuid.UUID]*entity.Bid),
		Orders:        make(map[uuid.UUID]*entity.Order),
		Deliveries:    make(map[uuid.UUID][]entity.Delivery),
		Profiles:      make(map[uuid.UUID]*entity.Profile),
		Users:         make(map[uuid.UUID]*entity.User),
		Sessions:      make(map[string]*entity.Session),
		Wallets:       make(map[uuid.UUID]*entity.Wallet),
		Conversations: make(map[uuid.UUID]*entity.Conversation),
		Messages:      make(map[uuid.UUID]*entity.Message),
		Referenced:    make(map[uuid.UUID]bool),
	}
}

func (s *Store) touch() func() {
	s.mu.Lock()
	s.Calls++
	return s.mu.Unlock
}

// WithinTx без отката: тестам важна только последовательность вызовов.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) ListingRepo() repository.ListingRepository           { return listingRepo{s} }
func (s *Store) JobRepo() repository.JobRepository                   { return jobRepo{s} }
func (s *Store) BidRepo() repository.BidRepository                   { return bidRepo{s} }
func (s *Store) OrderRepo() repository.OrderRepository               { return orderRepo{s} }
func (s *Store) ReviewRepo() repository.ReviewRepository             { return reviewRepo{s} }
func (s *Store) ProfileRepo() repository.ProfileRepository           { return profileRepo{s} }
func (s *Store) UserRepo() repository.UserRepository                 { return userRepo{s} }
func (s *Store) SessionRepo() repository.SessionRepository           { return sessionRepo{s} }
func (s *Store) WalletRepo() repository.WalletRepository             { return walletRepo{s} }
func (s *Store) ConversationRepo() repository.ConversationRepository { return conversationRepo{s} }
func (s *Store) MessageRepo() repository.MessageRepository           { return messageRepo{s} }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ---- listings

type listingRepo struct{ s *Store }

func (r listingRepo) Create(ctx context.Context, l *entity.Listing) error {
	defer r.s.touch()()
	c := *l
	r.s.Listings[l.ID] = &c
	return nil
}

func (r listingRepo) Update(ctx context.Context, l *entity.Listing) error {
	defer r.s.touch()()
	if _, ok := r.s.Listings[l.ID]; !ok {
		return apperror.ErrListingNotFound
	}
	c := *l
	r.s.Listings[l.ID] = &c
	return nil
}

func (r listingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.touch()()
	if _, ok := r.s.Listings[id]; !ok {
		return apperror.ErrListingNotFound
	}
	if r.s.Referenced[id] {
		return repository.ErrReferenced
	}
	delete(r.s.Listings, id)
	return nil
}

func (r listingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	defer r.s.touch()()
	l, ok := r.s.Listings[id]
	if !ok {
		return nil, apperror.ErrListingNotFound
	}
	c := *l
	return &c, nil
}

func (r listingRepo) List(ctx context.Context, f repository.ListingFilter) ([]*entity.Listing, int, error) {
	defer r.s.touch()()
	var result []*entity.Listing
	for _, l := range r.s.Listings {
		if f.SellerID != nil && l.SellerID != *f.SellerID {
			continue
		}
		if f.Status != "" && string(l.Status) != f.Status {
			continue
		}
		if f.Category != "" && l.Category != f.Category {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(f.Search)) {
			continue
		}
		c := *l
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, f.Limit, f.Offset), len(result), nil
}

// ---- jobs

type jobRepo struct{ s *Store }

func (r jobRepo) Create(ctx context.Context, j *entity.Job) error {
	defer r.s.touch()()
	c := *j
	r.s.Jobs[j.ID] = &c
	return nil
}

func (r jobRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	defer r.s.touch()()
	j, ok := r.s.Jobs[id]
	if !ok {
		return nil, apperror.ErrJobNotFound
	}
	c := *j
	return &c, nil
}

func (r jobRepo) List(ctx context.Context, f repository.JobFilter) ([]*entity.Job, int, error) {
	defer r.s.touch()()
	var result []*entity.Job
	for _, j := range r.s.Jobs {
		if f.CreatorID != nil && j.CreatorID != *f.CreatorID {
			continue
		}
		if f.WorkerID != nil && !j.IsWorker(*f.WorkerID) {
			continue
		}
		if f.Status != "" && string(j.Status) != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(j.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.BudgetMin != nil && j.Budget.Amount < *f.BudgetMin {
			continue
		}
		if f.BudgetMax != nil && j.Budget.Amount > *f.BudgetMax {
			continue
		}
		c := *j
		result = append(result, &c)
	}
	sort.Slice(result, func(i, k int) bool { return result[i].CreatedAt.After(result[k].CreatedAt) })
	return page(result, f.Limit, f.Offset), len(result), nil
}

func (r jobRepo) UpdateState(ctx context.Context, j *entity.Job, expected valueobject.JobStatus) error {
	defer r.s.touch()()
	stored, ok := r.s.Jobs[j.ID]
	if !ok || stored.Status != expected {
		return apperror.ErrStaleState
	}
	c := *j
	r.s.Jobs[j.ID] = &c
	return nil
}

// ---- bids

type bidRepo struct{ s *Store }

func (r bidRepo) Create(ctx context.Context, b *entity.Bid) error {
	defer r.s.touch()()
	for _, existing := range r.s.Bids {
		if existing.JobID == b.JobID && existing.BidderID == b.BidderID {
			return apperror.ErrAlreadyBid
		}
	}
	c := *b
	r.s.Bids[b.ID] = &c
	return nil
}

func (r bidRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	defer r.s.touch()()
	b, ok := r.s.Bids[id]
	if !ok {
		return nil, apperror.ErrBidNotFound
	}
	c := *b
	return &c, nil
}

func (r bidRepo) FindByJobID(ctx context.Context, jobID uuid.UUID) ([]*entity.Bid, error) {
	defer r.s.touch()()
	return r.collect(func(b *entity.Bid) bool { return b.JobID == jobID }), nil
}

func (r bidRepo) FindByBidderID(ctx context.Context, bidderID uuid.UUID) ([]*entity.Bid, error) {
	defer r.s.touch()()
	return r.collect(func(b *entity.Bid) bool { return b.BidderID == bidderID }), nil
}

func (r bidRepo) collect(match func(*entity.Bid) bool) []*entity.Bid {
	result := []*entity.Bid{}
	for _, b := range r.s.Bids {
		if match(b) {
			c := *b
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (r bidRepo) FindByJobAndBidder(ctx context.Context, jobID, bidderID uuid.UUID) (*entity.Bid, error) {
	defer r.s.touch()()
	for _, b := range r.s.Bids {
		if b.JobID == jobID && b.BidderID == bidderID {
			c := *b
			return &c, nil
		}
	}
	return nil, nil
}

func (r bidRepo) UpdateStatus(ctx context.Context, b *entity.Bid, expected valueobject.BidStatus) error {
	defer r.s.touch()()
	stored, ok := r.s.Bids[b.ID]
	if !ok || stored.Status != expected {
		return apperror.ErrStaleState
	}
	c := *b
	r.s.Bids[b.ID] = &c
	return nil
}

func (r bidRepo) RejectPendingExcept(ctx context.Context, jobID, keepBidID uuid.UUID) (int64, error) {
	defer r.s.touch()()
	var n int64
	for id, b := range r.s.Bids {
		if b.JobID == jobID && id != keepBidID && b.Status == valueobject.BidStatusPending {
			b.Status = valueobject.BidStatusRejected
			n++
		}
	}
	return n, nil
}

// ---- orders

type orderRepo struct{ s *Store }

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Listing, c.Job, c.Deliveries = nil, nil, nil
	return &c
}

func (r orderRepo) Create(ctx context.Context, o *entity.Order) error {
	defer r.s.touch()()
	if o.IsHire() && o.Status == valueobject.OrderStatusPending {
		for _, existing := range r.s.Orders {
			if existing.IsHire() && *existing.JobID == *o.JobID && *existing.BidID == *o.BidID &&
				existing.Status == valueobject.OrderStatusPending {
				return apperror.ErrHirePending
			}
		}
	}
	r.s.Orders[o.ID] = cloneOrder(o)
	return nil
}

func (r orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	defer r.s.touch()()
	o, ok := r.s.Orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r orderRepo) FindHireOrder(ctx context.Context, jobID, bidID uuid.UUID, status valueobject.OrderStatus) (*entity.Order, error) {
	defer r.s.touch()()
	var latest *entity.Order
	for _, o := range r.s.Orders {
		if !o.IsHire() || *o.JobID != jobID || *o.BidID != bidID || o.Status != status {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneOrder(latest), nil
}

func (r orderRepo) FindByParticipant(ctx context.Context, userID uuid.UUID, f repository.OrderFilter) ([]*entity.Order, int, error) {
	defer r.s.touch()()
	var result []*entity.Order
	for _, o := range r.s.Orders {
		switch f.Side {
		case "buyer":
			if !o.IsBuyer(userID) {
				continue
			}
		case "seller":
			if !o.IsSeller(userID) {
				continue
			}
		default:
			if !o.IsParticipant(userID) {
				continue
			}
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		result = append(result, cloneOrder(o))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, f.Limit, f.Offset), len(result), nil
}

func (r orderRepo) UpdateState(ctx context.Context, o *entity.Order, expected valueobject.OrderStatus) error {
	defer r.s.touch()()
	stored, ok := r.s.Orders[o.ID]
	if !ok || stored.Status != expected {
		return apperror.ErrStaleState
	}
	r.s.Orders[o.ID] = cloneOrder(o)
	return nil
}

func (r orderRepo) SetCheckoutSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	defer r.s.touch()()
	o, ok := r.s.Orders[orderID]
	if !ok {
		return apperror.ErrOrderNotFound
	}
	o.CheckoutSessionID = &sessionID
	return nil
}

func (r orderRepo) AddDelivery(ctx context.Context, d *entity.Delivery) error {
	defer r.s.touch()()
	r.s.Deliveries[d.OrderID] = append(r.s.Deliveries[d.OrderID], *d)
	return nil
}

func (r orderRepo) FindDeliveries(ctx context.Context, orderID uuid.UUID) ([]entity.Delivery, error) {
	defer r.s.touch()()
	return append([]entity.Delivery{}, r.s.Deliveries[orderID]...), nil
}

// ---- reviews

type reviewRepo struct{ s *Store }

func reviewMatches(rv *entity.Review, kind entity.ReviewParentKind, parentID, reviewerID uuid.UUID) bool {
	if rv.ReviewerID != reviewerID {
		return false
	}
	switch kind {
	case entity.ReviewParentJob:
		return rv.JobID != nil && *rv.JobID == parentID
	case entity.ReviewParentOrder:
		return rv.OrderID != nil && *rv.OrderID == parentID
	}
	return false
}

func (r reviewRepo) Create(ctx context.Context, rv *entity.Review) error {
	defer r.s.touch()()
	kind, parentID := entity.ReviewParentOrder, uuid.Nil
	if rv.JobID != nil {
		kind, parentID = entity.ReviewParentJob, *rv.JobID
	} else if rv.OrderID != nil {
		parentID = *rv.OrderID
	}
	for _, existing := range r.s.Reviews {
		if reviewMatches(existing, kind, parentID, rv.ReviewerID) {
			return apperror.ErrAlreadyReviewed
		}
	}
	c := *rv
	r.s.Reviews = append(r.s.Reviews, &c)
	return nil
}

func (r reviewRepo) Exists(ctx context.Context, kind entity.ReviewParentKind, parentID, reviewerID uuid.UUID) (bool, error) {
	defer r.s.touch()()
	for _, existing := range r.s.Reviews {
		if reviewMatches(existing, kind, parentID, reviewerID) {
			return true, nil
		}
	}
	return false, nil
}

func (r reviewRepo) FindByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	defer r.s.touch()()
	var result []*entity.Review
	for _, rv := range r.s.Reviews {
		if rv.RevieweeID == revieweeID {
			c := *rv
			result = append(result, &c)
		}
	}
	return page(result, limit, offset), nil
}

func (r reviewRepo) RatingSummary(ctx context.Context, revieweeID uuid.UUID) (entity.RatingSummary, error) {
	defer r.s.touch()()
	var sum, n int
	for _, rv := range r.s.Reviews {
		if rv.RevieweeID == revieweeID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return entity.RatingSummary{}, nil
	}
	return entity.RatingSummary{Average: float64(sum) / float64(n), Count: n}, nil
}

// ---- profiles, users, sessions

type profileRepo struct{ s *Store }

func (r profileRepo) Create(ctx context.Context, p *entity.Profile) error {
	defer r.s.touch()()
	c := *p
	r.s.Profiles[p.ID] = &c
	return nil
}

func (r profileRepo) Update(ctx context.Context, p *entity.Profile) error {
	defer r.s.touch()()
	if _, ok := r.s.Profiles[p.ID]; !ok {
		return apperror.ErrProfileNotFound
	}
	c := *p
	r.s.Profiles[p.ID] = &c
	return nil
}

func (r profileRepo) SetRole(ctx context.Context, p *entity.Profile) error {
	defer r.s.touch()()
	stored, ok := r.s.Profiles[p.ID]
	if !ok {
		return apperror.ErrProfileNotFound
	}
	if stored.Role != valueobject.RoleNone {
		return apperror.ErrRoleAlreadySet
	}
	stored.Role = p.Role
	return nil
}

func (r profileRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	defer r.s.touch()()
	p, ok := r.s.Profiles[id]
	if !ok {
		return nil, apperror.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u *entity.User) error {
	defer r.s.touch()()
	for _, existing := range r.s.Users {
		if existing.Email == u.Email {
			return apperror.ErrEmailTaken
		}
	}
	c := *u
	r.s.Users[u.ID] = &c
	return nil
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	defer r.s.touch()()
	for _, u := range r.s.Users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (r userRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	defer r.s.touch()()
	u, ok := r.s.Users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r userRepo) TouchLastLogin(ctx context.Context, userID uuid.UUID) error {
	defer r.s.touch()()
	return nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(ctx context.Context, sess *entity.Session) error {
	defer r.s.touch()()
	c := *sess
	r.s.Sessions[sess.RefreshToken] = &c
	return nil
}

func (r sessionRepo) FindByToken(ctx context.Context, token string) (*entity.Session, error) {
	defer r.s.touch()()
	sess, ok := r.s.Sessions[token]
	if !ok {
		return nil, apperror.ErrUnauthorized
	}
	c := *sess
	return &c, nil
}

func (r sessionRepo) DeleteByToken(ctx context.Context, token string) error {
	defer r.s.touch()()
	delete(r.s.Sessions, token)
	return nil
}

// ---- wallet

type walletRepo struct{ s *Store }

func (r walletRepo) GetForUpdate(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	defer r.s.touch()()
	w, ok := r.s.Wallets[userID]
	if !ok {
		w = entity.NewWallet(userID)
		r.s.Wallets[userID] = w
	}
	c := *w
	return &c, nil
}

func (r walletRepo) Get(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	defer r.s.touch()()
	w, ok := r.s.Wallets[userID]
	if !ok {
		return entity.NewWallet(userID), nil
	}
	c := *w
	return &c, nil
}

func (r walletRepo) Save(ctx context.Context, w *entity.Wallet) error {
	defer r.s.touch()()
	c := *w
	r.s.Wallets[w.UserID] = &c
	return nil
}

func (r walletRepo) AddTransaction(ctx context.Context, tx *entity.Transaction) error {
	defer r.s.touch()()
	c := *tx
	r.s.Transactions = append(r.s.Transactions, &c)
	return nil
}

func (r walletRepo) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	defer r.s.touch()()
	result := []*entity.Transaction{}
	for i := len(r.s.Transactions) - 1; i >= 0; i-- {
		if tx := r.s.Transactions[i]; tx.UserID == userID {
			c := *tx
			result = append(result, &c)
		}
	}
	return page(result, limit, offset), nil
}

// ---- conversations, messages

type conversationRepo struct{ s *Store }

func (r conversationRepo) Create(ctx context.Context, c *entity.Conversation) error {
	defer r.s.touch()()
	cp := *c
	r.s.Conversations[c.ID] = &cp
	return nil
}

func (r conversationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	defer r.s.touch()()
	c, ok := r.s.Conversations[id]
	if !ok {
		return nil, apperror.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func sameRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r conversationRepo) FindByParticipants(ctx context.Context, a, b uuid.UUID, listingID, jobID *uuid.UUID) (*entity.Conversation, error) {
	defer r.s.touch()()
	for _, c := range r.s.Conversations {
		if !c.IsParticipant(a) || !c.IsParticipant(b) {
			continue
		}
		if sameRef(c.ListingID, listingID) && sameRef(c.JobID, jobID) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r conversationRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error) {
	defer r.s.touch()()
	result := []*entity.Conversation{}
	for _, c := range r.s.Conversations {
		if c.IsParticipant(userID) {
			cp := *c
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func (r conversationRepo) Touch(ctx context.Context, id uuid.UUID) error {
	defer r.s.touch()()
	return nil
}

type messageRepo struct{ s *Store }

func cloneMessage(m *entity.Message) *entity.Message {
	c := *m
	if m.Offer != nil {
		o := *m.Offer
		c.Offer = &o
	}
	return &c
}

func (r messageRepo) Create(ctx context.Context, m *entity.Message) error {
	defer r.s.touch()()
	r.s.Messages[m.ID] = cloneMessage(m)
	return nil
}

func (r messageRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	defer r.s.touch()()
	m, ok := r.s.Messages[id]
	if !ok {
		return nil, apperror.ErrMessageNotFound
	}
	return cloneMessage(m), nil
}

func (r messageRepo) FindByConversationID(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	defer r.s.touch()()
	result := []*entity.Message{}
	for _, m := range r.s.Messages {
		if m.ConversationID == conversationID {
			result = append(result, cloneMessage(m))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return page(result, limit, offset), nil
}

func (r messageRepo) UpdateOffer(ctx context.Context, m *entity.Message, expected valueobject.OfferStatus) error {
	defer r.s.touch()()
	stored, ok := r.s.Messages[m.ID]
	if !ok || stored.Offer == nil || stored.Offer.Status != expected {
		return apperror.ErrStaleState
	}
	r.s.Messages[m.ID] = cloneMessage(m)
	return nil
}

// Recorder запоминает сигналы инвалидации.
type Recorder struct {
	mu      sync.Mutex
	Signals []invalidation.Signal
}

func (r *Recorder) Notify(ctx context.Context, signal invalidation.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Signals = append(r.Signals, signal)
}

// Actions действия из полученных сигналов по порядку.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.Signals))
	for _, s := range r.Signals {
		actions = append(actions, s.Action)
	}
	return actions
}
