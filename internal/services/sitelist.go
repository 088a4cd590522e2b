package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"sitepanel/internal/metrics"
	"sitepanel/internal/models"
)

var (
	// ErrEmptyName is returned when a submitted name trims to nothing.
	ErrEmptyName = errors.New("empty site name")
	// ErrSiteNotFound is returned when a safe name is no longer in the roster.
	ErrSiteNotFound = errors.New("site not found")
)

// User-facing texts for the two local rejections above.
const (
	MsgEmptyName    = "Le nom ne peut pas être vide."
	MsgSiteNotFound = "Site introuvable."
)

const (
	msgCreateFailed   = "Erreur"
	msgNetworkFailure = "Erreur réseau"
	msgDeleteFailed   = "Impossible de supprimer."
	msgRenameFailed   = "Impossible de renommer."
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is an acknowledgment shown once after an action.
type Notice struct {
	Kind  NoticeKind `json:"kind"`
	Title string     `json:"title"`
	Text  string     `json:"text,omitempty"`
}

func successNotice(title string) *Notice {
	return &Notice{Kind: NoticeSuccess, Title: title}
}

// ErrorNotice builds the "Erreur" acknowledgment carrying text.
func ErrorNotice(text string) *Notice {
	return &Notice{Kind: NoticeError, Title: "Erreur", Text: text}
}

// Stats summarises the list a view was built from. LastCreated is the raw
// createdAt of the last element and is empty for an empty list.
type Stats struct {
	Total       int    `json:"total"`
	LastCreated string `json:"lastCreated"`
}

// View is everything a render needs: the filtered rows, their stats and the
// transient form state.
type View struct {
	Query       string        `json:"query"`
	Sites       []models.Site `json:"sites"`
	Stats       Stats         `json:"stats"`
	LoadFailed  bool          `json:"loadFailed"`
	FormMessage string        `json:"formMessage,omitempty"`
	FormInput   string        `json:"-"`
	Notice      *Notice       `json:"notice,omitempty"`
}

// CreateResult reports what a create submission did.
type CreateResult struct {
	// Sent is false when the name was blank and nothing happened.
	Sent bool
	OK   bool
	// Message is the status line for the create form of this response only.
	Message string
	// FetchErr is set when the resync fetch after a successful create failed.
	FetchErr error
}

// RenameResult reports what a rename submission did. A zero value means
// there was nothing to do.
type RenameResult struct {
	Notice *Notice
	// FetchErr is set when the resync fetch after a successful rename failed.
	FetchErr error
}

// SiteList owns the roster and keeps it in step with the backend. The mutex
// guards roster reads and patches only, never a backend call, so concurrent
// operations interleave the way independent UI events would.
type SiteList struct {
	api                SiteAPI
	journal            *Journal
	logger             *zap.Logger
	metrics            *metrics.Metrics
	refetchAfterRename bool

	mu     sync.Mutex
	roster []models.Site
}

// SiteListOption customises a SiteList.
type SiteListOption func(*SiteList)

// WithJournal records every mutation sent to the backend.
func WithJournal(j *Journal) SiteListOption {
	return func(s *SiteList) { s.journal = j }
}

// WithMetrics exports the roster size.
func WithMetrics(m *metrics.Metrics) SiteListOption {
	return func(s *SiteList) { s.metrics = m }
}

// WithRefetchAfterRename resyncs from the backend after a successful rename,
// on top of the local patch.
func WithRefetchAfterRename(enabled bool) SiteListOption {
	return func(s *SiteList) { s.refetchAfterRename = enabled }
}

func NewSiteList(api SiteAPI, logger *zap.Logger, opts ...SiteListOption) *SiteList {
	s := &SiteList{
		api:    api,
		logger: logger.With(zap.String("component", "sitelist")),
		roster: []models.Site{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchSites replaces the roster with the backend's list. On failure the
// roster is kept and the error is returned for the caller to render the
// load-error placeholder.
func (s *SiteList) FetchSites(ctx context.Context) error {
	sites, err := s.api.List(ctx)
	if err != nil {
		s.logger.Warn("fetch sites failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.roster = sites
	s.mu.Unlock()
	s.metrics.SetRosterSize(len(sites))
	return nil
}

// Filter returns the roster entries matching query. A blank query returns
// the whole roster. The result is always a copy.
func (s *SiteList) Filter(query string) []models.Site {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Site, 0, len(s.roster))
	for _, site := range s.roster {
		if q == "" || site.Matches(q) {
			out = append(out, site)
		}
	}
	return out
}

// View renders the roster through query.
func (s *SiteList) View(query string) View {
	list := s.Filter(query)
	return View{
		Query: query,
		Sites: list,
		Stats: ComputeStats(list),
	}
}

// ComputeStats counts list and takes the creation date of its last element.
func ComputeStats(list []models.Site) Stats {
	st := Stats{Total: len(list)}
	if len(list) > 0 {
		st.LastCreated = list[len(list)-1].CreatedAt
	}
	return st
}

// Lookup finds the roster entry keyed by safeName.
func (s *SiteList) Lookup(safeName string) (models.Site, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, site := range s.roster {
		if site.SafeName == safeName {
			return site, true
		}
	}
	return models.Site{}, false
}

// Len is the current roster size.
func (s *SiteList) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roster)
}

// Delete removes safeName on the backend, then from the roster. Removing an
// entry that is already gone is a no-op.
func (s *SiteList) Delete(ctx context.Context, safeName string) *Notice {
	err := s.api.Delete(ctx, safeName)
	s.record(ctx, models.Activity{Action: models.ActionDelete, SafeName: safeName, Detail: safeName}, err, "")
	if err != nil {
		s.logger.Warn("delete failed", zap.String("safe_name", safeName), zap.Error(err))
		return ErrorNotice(msgDeleteFailed)
	}

	s.mu.Lock()
	kept := make([]models.Site, 0, len(s.roster))
	for _, site := range s.roster {
		if site.SafeName != safeName {
			kept = append(kept, site)
		}
	}
	s.roster = kept
	size := len(kept)
	s.mu.Unlock()

	s.metrics.SetRosterSize(size)
	s.logger.Info("site deleted", zap.String("safe_name", safeName))
	return successNotice("Supprimé !")
}

// Rename asks the backend to rename safeName to newName and patches the
// roster entry on success. It returns a zero result when there is nothing to
// do, and ErrEmptyName or ErrSiteNotFound without contacting the backend.
func (s *SiteList) Rename(ctx context.Context, safeName, newName string) (RenameResult, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return RenameResult{}, ErrEmptyName
	}
	current, ok := s.Lookup(safeName)
	if !ok {
		return RenameResult{}, ErrSiteNotFound
	}
	if name == current.SiteName {
		return RenameResult{}, nil
	}

	msg, err := s.api.Rename(ctx, safeName, name)
	s.record(ctx, models.Activity{
		Action:   models.ActionRename,
		SafeName: safeName,
		Detail:   current.SiteName + " -> " + name,
	}, err, msg)
	if err != nil {
		s.logger.Warn("rename failed", zap.String("safe_name", safeName), zap.Error(err))
		text := BackendMessage(err)
		if text == "" {
			text = msgRenameFailed
		}
		return RenameResult{Notice: ErrorNotice(text)}, nil
	}

	s.mu.Lock()
	for i, site := range s.roster {
		if site.SafeName == safeName {
			s.roster[i] = site.Renamed(name)
		}
	}
	s.mu.Unlock()
	s.logger.Info("site renamed", zap.String("safe_name", safeName), zap.String("new_name", name))

	res := RenameResult{Notice: successNotice("Renommé !")}
	if s.refetchAfterRename {
		// The local URL patch is best-effort, the backend's list is authoritative.
		res.FetchErr = s.FetchSites(ctx)
	}
	return res, nil
}

// Create submits a new site and resynchronises the whole roster on success.
// A blank name is ignored silently.
func (s *SiteList) Create(ctx context.Context, siteName string) CreateResult {
	name := strings.TrimSpace(siteName)
	if name == "" {
		return CreateResult{}
	}

	msg, err := s.api.Create(ctx, name)
	s.record(ctx, models.Activity{
		Action:   models.ActionCreate,
		SafeName: models.NormalizeSafeName(name),
		Detail:   name,
	}, err, msg)
	if err != nil {
		s.logger.Warn("create failed", zap.String("site_name", name), zap.Error(err))
		res := CreateResult{Sent: true, Message: msgNetworkFailure}
		var be *BackendError
		if errors.As(err, &be) {
			res.Message = be.Message
			if res.Message == "" {
				res.Message = msgCreateFailed
			}
		}
		return res
	}

	s.logger.Info("site created", zap.String("site_name", name))
	return CreateResult{Sent: true, OK: true, Message: msg, FetchErr: s.FetchSites(ctx)}
}

// Activities returns the newest n journal entries, or nil without a journal.
func (s *SiteList) Activities(ctx context.Context, n int) []models.Activity {
	if s.journal == nil {
		return nil
	}
	out, err := s.journal.Recent(ctx, n)
	if err != nil {
		s.logger.Warn("read journal failed", zap.Error(err))
		return nil
	}
	return out
}

func (s *SiteList) record(ctx context.Context, a models.Activity, err error, msg string) {
	if s.journal == nil {
		return
	}
	a.Success = err == nil
	a.Message = msg
	if err != nil {
		a.Message = err.Error()
	}
	if jerr := s.journal.Record(context.WithoutCancel(ctx), a); jerr != nil {
		s.logger.Warn("journal write failed", zap.Error(jerr))
	}
}
