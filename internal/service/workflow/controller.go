package workflow

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/scantrak/internal/decoder"
	"github.com/mamadbah2/scantrak/internal/domain/models"
	"github.com/mamadbah2/scantrak/internal/identity"
)

const (
	msgEmptyCart       = "Cart is empty"
	msgMissingMember   = "Please fill in Member Name and Member ID"
	msgInvalidRole     = "Please choose applicator or customer"
	msgUnavailable     = "That action is not available right now"
	msgSubmitFailed    = "Submission failed. Please try again."
	msgFeedUnavailable = "Unable to load submitted records"
)

// Decoder is the camera capability the scanner view drives.
type Decoder interface {
	Start(onDecode func(text string), onError func(err error)) error
	Stop()
}

// Gateway is the shared record store.
type Gateway interface {
	Write(ctx context.Context, record models.SubmittedRecord) (models.SubmittedRecord, error)
	Subscribe(ctx context.Context, onChange func([]models.SubmittedRecord)) (func(), error)
}

// Authenticator establishes the anonymous identity stamped on submissions.
type Authenticator interface {
	Authenticate(ctx context.Context) (identity.Principal, error)
}

// Form is the member form of the current session.
type Form struct {
	Role       models.Role `json:"role"`
	MemberName string      `json:"memberName"`
	MemberID   string      `json:"memberId"`
}

// Complete reports whether both member fields are non-blank.
func (f Form) Complete() bool {
	return strings.TrimSpace(f.MemberName) != "" && strings.TrimSpace(f.MemberID) != ""
}

// State is a point-in-time snapshot of a session.
type State struct {
	View       View                 `json:"view"`
	Role       models.Role          `json:"role"`
	MemberName string               `json:"memberName"`
	MemberID   string               `json:"memberId"`
	Cart       []models.ScannedItem `json:"cart"`
	Notices    []Notice             `json:"notices"`
}

// Option customizes a Controller.
type Option func(*Controller)

// WithNoticeTTL sets how long notices stay pending.
func WithNoticeTTL(ttl time.Duration) Option {
	return func(c *Controller) { c.noticeTTL = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTempIDs replaces the cart's TempID generator.
func WithTempIDs(newID func() string) Option {
	return func(c *Controller) { c.cart.newID = newID }
}

// Controller drives one session through the welcome, scanner, cart and admin
// views. Events are handled one at a time.
type Controller struct {
	mu          sync.Mutex
	view        View
	form        Form
	cart        *Cart
	notices     *NoticeQueue
	closed      bool
	unsubscribe func()

	decoder Decoder
	gateway Gateway
	auth    Authenticator
	logger  *zap.Logger

	noticeTTL time.Duration
	now       func() time.Time

	// The admin feed has its own lock: gateway callbacks must not wait on an
	// in-flight event.
	feedMu      sync.Mutex
	feedGen     uint64
	feedActive  bool
	feed        []models.SubmittedRecord
	feedChanged chan struct{}
}

// NewController wires a session controller in the welcome view.
func NewController(dec Decoder, gateway Gateway, auth Authenticator, logger *zap.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		view:        ViewWelcome,
		cart:        NewCart(),
		decoder:     dec,
		gateway:     gateway,
		auth:        auth,
		logger:      logger,
		noticeTTL:   3 * time.Second,
		now:         time.Now,
		feedChanged: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.notices = NewNoticeQueue(c.noticeTTL, c.now)

	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SelectRole starts a fresh session for role and opens the scanner.
func (c *Controller) SelectRole(role models.Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("select role", ViewWelcome); err != nil {
		return err
	}

	parsed, ok := models.ParseRole(string(role))
	if !ok {
		c.notices.Push(msgInvalidRole, SeverityWarning)
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	c.resetLocked()
	c.form.Role = parsed
	c.enterScannerLocked()

	c.logger.Info("role selected", zap.String("role", string(parsed)))
	return nil
}

// HandleDecode adds the decoded item to the cart and shows the cart. Decodes
// arriving outside the scanner view are dropped.
func (c *Controller) HandleDecode(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.view != ViewScanner {
		c.logger.Debug("dropping decode outside scanner view", zap.Stringer("view", c.view))
		return
	}

	items := c.cart.Add(models.ParseScannedItem(text))
	added := items[len(items)-1]

	c.decoder.Stop()
	c.view = ViewCart
	c.notices.Push(fmt.Sprintf("Added %s to cart", added.Name), SeveritySuccess)

	c.logger.Info("item scanned", zap.String("product_id", added.ID), zap.Int("cart_size", len(items)))
}

// HandleDecodeError surfaces a camera failure. The scanner stays open for retry.
func (c *Controller) HandleDecodeError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.view != ViewScanner {
		return
	}

	c.logger.Warn("camera error", zap.Error(err))
	c.notices.Push(cameraMessage(err), SeverityError)
}

// RetryScanner restarts the decoder after a camera failure.
func (c *Controller) RetryScanner() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("retry scanner", ViewScanner); err != nil {
		return err
	}

	c.decoder.Stop()
	c.enterScannerLocked()
	return nil
}

// ViewCart leaves the scanner for the cart.
func (c *Controller) ViewCart() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("view cart", ViewScanner); err != nil {
		return err
	}

	c.decoder.Stop()
	c.view = ViewCart
	return nil
}

// Cancel leaves the scanner. A non-empty cart is kept and shown instead of
// returning to the welcome view.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("cancel", ViewScanner); err != nil {
		return err
	}

	c.decoder.Stop()
	if c.cart.Len() > 0 {
		c.view = ViewCart
		return nil
	}

	c.resetLocked()
	c.view = ViewWelcome
	return nil
}

// ScanAnother reopens the scanner keeping the cart.
func (c *Controller) ScanAnother() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("scan another", ViewCart); err != nil {
		return err
	}

	c.enterScannerLocked()
	return nil
}

// RemoveItem drops a cart entry. Unknown IDs are ignored.
func (c *Controller) RemoveItem(tempID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("remove item", ViewCart); err != nil {
		return err
	}

	if !c.cart.Remove(tempID) {
		c.logger.Debug("remove of unknown cart item", zap.String("temp_id", tempID))
	}
	return nil
}

// UpdateForm stores the member fields as typed. They are normalized on submit.
func (c *Controller) UpdateForm(memberName, memberID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("update form", ViewCart); err != nil {
		return err
	}

	c.form.MemberName = memberName
	c.form.MemberID = memberID
	return nil
}

// Submit writes one record per cart item and, once every write succeeded,
// resets the session to the welcome view. It returns the number of records written.
func (c *Controller) Submit(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("submit", ViewCart); err != nil {
		return 0, err
	}

	items := c.cart.Items()
	if len(items) == 0 {
		c.notices.Push(msgEmptyCart, SeverityWarning)
		return 0, ErrEmptyCart
	}
	if !c.form.Complete() {
		c.notices.Push(msgMissingMember, SeverityWarning)
		return 0, ErrMissingMember
	}

	principal, err := c.auth.Authenticate(ctx)
	if err != nil {
		c.logger.Error("failed to establish identity", zap.Error(err))
		c.notices.Push(msgSubmitFailed, SeverityError)
		return 0, fmt.Errorf("%w: establish identity: %w", ErrSubmissionFailed, err)
	}

	// Writes run concurrently; the submission only counts once every write settled.
	var g errgroup.Group
	for _, item := range items {
		record := models.NewSubmittedRecord(item, c.form.MemberName, c.form.MemberID, c.form.Role, principal.UID)
		g.Go(func() error {
			_, err := c.gateway.Write(ctx, record)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Error("failed to submit cart", zap.Int("items", len(items)), zap.Error(err))
		c.notices.Push(msgSubmitFailed, SeverityError)
		return 0, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	c.logger.Info("cart submitted",
		zap.Int("items", len(items)),
		zap.String("role", string(c.form.Role)),
		zap.String("user_id", principal.UID))

	c.resetLocked()
	c.view = ViewWelcome
	c.notices.Push(fmt.Sprintf("Successfully submitted %d item(s)", len(items)), SeveritySuccess)

	return len(items), nil
}

// ToggleAdmin switches between the welcome and admin views, opening or
// cancelling the live records subscription.
func (c *Controller) ToggleAdmin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("toggle admin", ViewWelcome, ViewAdmin); err != nil {
		return err
	}

	if c.view == ViewAdmin {
		c.leaveAdminLocked()
		c.view = ViewWelcome
		return nil
	}

	gen := c.beginFeed()
	unsubscribe, err := c.gateway.Subscribe(ctx, func(records []models.SubmittedRecord) {
		c.updateFeed(gen, records)
	})
	if err != nil {
		c.endFeed()
		c.logger.Error("failed to subscribe to records", zap.Error(err))
		c.notices.Push(msgFeedUnavailable, SeverityError)
		return fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}

	c.unsubscribe = unsubscribe
	c.view = ViewAdmin
	return nil
}

// AdminFeed returns the latest records (newest first), a channel closed on the
// next change, and whether the admin view is active.
func (c *Controller) AdminFeed() ([]models.SubmittedRecord, <-chan struct{}, bool) {
	c.feedMu.Lock()
	defer c.feedMu.Unlock()

	out := make([]models.SubmittedRecord, len(c.feed))
	copy(out, c.feed)
	return out, c.feedChanged, c.feedActive
}

// Notices returns the pending notices.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notices.Pending()
}

// DismissNotice removes a notice before it expires.
func (c *Controller) DismissNotice(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notices.Dismiss(id)
}

// Close ends the session, stopping the camera and the records subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.decoder.Stop()
	c.leaveAdminLocked()
	c.resetLocked()
	c.view = ViewWelcome
	c.closed = true
}

func (c *Controller) guard(action string, allowed ...View) error {
	if c.closed {
		return ErrSessionClosed
	}
	if slices.Contains(allowed, c.view) {
		return nil
	}

	c.notices.Push(msgUnavailable, SeverityWarning)
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, c.view)
}

func (c *Controller) enterScannerLocked() {
	c.view = ViewScanner
	if err := c.decoder.Start(c.HandleDecode, c.HandleDecodeError); err != nil && !errors.Is(err, decoder.ErrAlreadyRunning) {
		c.logger.Warn("failed to start decoder", zap.Error(err))
		c.notices.Push(cameraMessage(err), SeverityError)
	}
}

func (c *Controller) resetLocked() {
	c.cart.Clear()
	c.form = Form{}
}

func (c *Controller) leaveAdminLocked() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.endFeed()
}

func (c *Controller) beginFeed() uint64 {
	c.feedMu.Lock()
	defer c.feedMu.Unlock()

	c.feedGen++
	c.feedActive = true
	c.feed = nil
	return c.feedGen
}

func (c *Controller) endFeed() {
	c.feedMu.Lock()
	defer c.feedMu.Unlock()

	if !c.feedActive {
		return
	}
	c.feedGen++
	c.feedActive = false
	c.feed = nil
	close(c.feedChanged)
	c.feedChanged = make(chan struct{})
}

func (c *Controller) updateFeed(gen uint64, records []models.SubmittedRecord) {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.SubmittedRecord) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	c.feedMu.Lock()
	defer c.feedMu.Unlock()

	if gen != c.feedGen {
		return
	}
	c.feed = sorted
	close(c.feedChanged)
	c.feedChanged = make(chan struct{})
}

func (c *Controller) stateLocked() State {
	return State{
		View:       c.view,
		Role:       c.form.Role,
		MemberName: c.form.MemberName,
		MemberID:   c.form.MemberID,
		Cart:       c.cart.Items(),
		Notices:    c.notices.Pending(),
	}
}

func cameraMessage(err error) string {
	switch {
	case errors.Is(err, decoder.ErrCameraPermission):
		return "Camera permission denied. Please allow camera access and retry."
	case errors.Is(err, decoder.ErrNoCamera):
		return "No camera found on this device."
	default:
		return fmt.Sprintf("Unable to use the camera: %v", err)
	}
}
