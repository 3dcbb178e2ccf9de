package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	repo "github.com/aifinder/aifinder-api/internal/domain/repository"
	"github.com/aifinder/aifinder-api/pkg/mailer"
	"github.com/aifinder/aifinder-api/pkg/razorpay"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// cloneUser deep-copies through bson so callers never share slices with the
// stored document, mirroring driver decode behavior.
func cloneUser(u *entity.User) *entity.User {
	b, _ := bson.Marshal(u)
	var out entity.User
	_ = bson.Unmarshal(b, &out)
	return &out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User // keyed by clerk id

	getErr        error
	getMisses     int // pending GetByClerkID calls that report not-found
	createErr     error
	removeRefsErr map[string]error // keyed by user id
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[string]*entity.User{}}
	for _, u := range users {
		if u.ID == "" {
			u.ID = "uid_" + u.ClerkID
		}
		f.users[u.ClerkID] = cloneUser(u)
	}
	return f
}

func (f *fakeUserRepo) byID(userID string) *entity.User {
	for _, u := range f.users {
		if u.ID == userID {
			return u
		}
	}
	return nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[u.ClerkID]; ok {
		return repo.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = "uid_" + u.ClerkID
	}
	u.CreatedAt = time.Now().UTC()
	f.users[u.ClerkID] = cloneUser(u)
	return nil
}

func (f *fakeUserRepo) GetByClerkID(ctx context.Context, clerkID string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getMisses > 0 {
		f.getMisses--
		return nil, repo.ErrNotFound
	}
	u, ok := f.users[clerkID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneUser(u), nil
}

func (f *fakeUserRepo) SetLastLogin(ctx context.Context, clerkID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return repo.ErrNotFound
	}
	u.LastLogin = &at
	u.IsActive = true
	return nil
}

func (f *fakeUserRepo) ApplyPayment(ctx context.Context, clerkID string, rec entity.PaymentRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return false, repo.ErrNotFound
	}
	if u.HasPayment(rec.PaymentID) {
		return false, nil
	}
	u.PlanAmount += rec.PlanAmount
	u.IsSubscribed = true
	u.PaymentHist = append(u.PaymentHist, rec)
	return true, nil
}

func (f *fakeUserRepo) AddLike(ctx context.Context, clerkID, toolID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return false, repo.ErrNotFound
	}
	if u.HasLiked(toolID) {
		return false, nil
	}
	u.LikedTools = append(u.LikedTools, toolID)
	return true, nil
}

func (f *fakeUserRepo) RemoveLike(ctx context.Context, clerkID, toolID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return false, repo.ErrNotFound
	}
	kept := u.LikedTools[:0]
	changed := false
	for _, id := range u.LikedTools {
		if id == toolID {
			changed = true
			continue
		}
		kept = append(kept, id)
	}
	u.LikedTools = kept
	return changed, nil
}

func (f *fakeUserRepo) PushSavedTool(ctx context.Context, clerkID string, st entity.SavedTool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return repo.ErrNotFound
	}
	u.SavedTools = append(u.SavedTools, st)
	return nil
}

func (f *fakeUserRepo) PullSavedTool(ctx context.Context, clerkID, toolID, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return false, repo.ErrNotFound
	}
	kept := u.SavedTools[:0]
	changed := false
	for _, st := range u.SavedTools {
		if (st.ToolID != "" && st.ToolID == toolID) || st.Name == name {
			changed = true
			continue
		}
		kept = append(kept, st)
	}
	u.SavedTools = kept
	return changed, nil
}

func (f *fakeUserRepo) ReplaceFolders(ctx context.Context, clerkID string, folders []entity.Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return repo.ErrNotFound
	}
	u.Folders = cloneUser(&entity.User{Folders: folders}).Folders
	return nil
}

func (f *fakeUserRepo) FindByToolRef(ctx context.Context, toolID, title string) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.User
	for _, u := range f.users {
		if u.HasLiked(toolID) || u.HasSaved(toolID, title) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (f *fakeUserRepo) RemoveToolRefs(ctx context.Context, userID, toolID, title string, folders []entity.Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.removeRefsErr[userID]; ok {
		return err
	}
	u := f.byID(userID)
	if u == nil {
		return repo.ErrNotFound
	}

	likes := u.LikedTools[:0]
	for _, id := range u.LikedTools {
		if id == toolID {
			continue
		}
		likes = append(likes, id)
	}
	u.LikedTools = likes

	saved := u.SavedTools[:0]
	for _, st := range u.SavedTools {
		if (st.ToolID != "" && st.ToolID == toolID) || st.Name == title {
			continue
		}
		saved = append(saved, st)
	}
	u.SavedTools = saved

	u.Folders = cloneUser(&entity.User{Folders: folders}).Folders
	return nil
}

type fakeToolRepo struct {
	mu    sync.Mutex
	tools map[string]*entity.Tool // keyed by id
	seq   int
}

func newFakeToolRepo(tools ...*entity.Tool) *fakeToolRepo {
	f := &fakeToolRepo{tools: map[string]*entity.Tool{}}
	for _, t := range tools {
		if t.ID == "" {
			f.seq++
			t.ID = fmt.Sprintf("tool_%03d", f.seq)
		}
		f.tools[t.ID] = t
	}
	return f
}

func (f *fakeToolRepo) Insert(ctx context.Context, t *entity.Tool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.tools {
		if existing.Title == t.Title {
			return repo.ErrDuplicate
		}
	}
	if t.ID == "" {
		f.seq++
		t.ID = fmt.Sprintf("tool_%03d", f.seq)
	}
	f.tools[t.ID] = t
	return nil
}

func (f *fakeToolRepo) GetByID(ctx context.Context, id string) (*entity.Tool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tools[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeToolRepo) GetByTitle(ctx context.Context, title string) (*entity.Tool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tools {
		if t.Title == title {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeToolRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tools[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.tools, id)
	return nil
}

func (f *fakeToolRepo) IncLikeCount(ctx context.Context, id string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tools[id]
	if !ok {
		return repo.ErrNotFound
	}
	if delta < 0 && t.LikeCount == 0 {
		return nil
	}
	t.LikeCount += delta
	return nil
}

func (f *fakeToolRepo) IncSaveCountByTitle(ctx context.Context, title string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tools {
		if t.Title == title {
			if delta < 0 && t.SaveCount == 0 {
				return nil
			}
			t.SaveCount += delta
			return nil
		}
	}
	if delta > 0 {
		return repo.ErrNotFound
	}
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*entity.PendingOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*entity.PendingOrder{}}
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *entity.PendingOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[o.OrderID]; ok {
		return repo.ErrDuplicate
	}
	cp := *o
	f.orders[o.OrderID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByOrderID(ctx context.Context, orderID string) (*entity.PendingOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

type fakeGateway struct {
	payValid  bool
	hookValid bool
	createErr error
	seq       int
}

func (g *fakeGateway) CreateOrder(planAmount int, receipt string, notes map[string]interface{}) (*razorpay.Order, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_%03d", g.seq),
		Amount:   int64(planAmount) * 100,
		Currency: "INR",
		Receipt:  receipt,
	}, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return g.payValid
}

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return g.hookValid
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (p *fakePublisher) PublishJSON(ctx context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if job, ok := body.(mailer.EmailJob); ok {
		p.jobs = append(p.jobs, job)
	}
	return nil
}
