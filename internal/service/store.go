package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hushcampus-dev/hushcampus/internal/config"
	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/errors"
	"github.com/hushcampus-dev/hushcampus/internal/logger"
	"github.com/hushcampus-dev/hushcampus/internal/storage/kv"
)

// seedVersion gates one-time seeding of community defaults.
const seedVersion = 1

// activitySampleCap bounds the persisted engagement-sample history.
const activitySampleCap = 100

// Classifier is the external content classifier consumed at its boundary.
type Classifier interface {
	Classify(content string) domain.ModerationResult
}

// CrisisDetector flags content indicating a crisis, with a severity label.
type CrisisDetector interface {
	Detect(content string) (bool, string)
}

// Encrypter is the external content-encryption helper.
type Encrypter interface {
	Encrypt(content string) (*domain.EncryptedBlob, error)
}

type permissiveClassifier struct{}

func (permissiveClassifier) Classify(string) domain.ModerationResult { return domain.ModerationResult{} }

type noCrisis struct{}

func (noCrisis) Detect(string) (bool, string) { return false, "" }

// CreatePostInput carries the create-post intent through the layers.
type CreatePostInput struct {
	AuthorId    domain.StudentId
	Content     string
	Category    string
	Lifetime    domain.Lifetime
	CustomHours int
	Encrypted   bool
	Community   *domain.CommunityRef
}

// Store is the aggregate root: it mutates entity state, asks the scheduler
// to (re)arm timers, the ledger to credit/debit, the fan-out engine to bump
// unread counters, and persists the touched namespaces synchronously.
type Store struct {
	mu        sync.Mutex
	cfg       *config.Public
	storage   Snapshots
	ledger    *Ledger
	scheduler *Scheduler
	now       Clock

	classifier  Classifier
	crisis      CrisisDetector
	encrypter   Encrypter
	crisisQueue CrisisQueue

	posts          map[domain.PostId]*domain.Post
	bookmarks      map[domain.PostId]bool
	reports        []domain.Report
	notifications  []domain.Notification
	communities    []*domain.Community
	channels       []*domain.Channel
	memberships    []*domain.Membership
	settings       map[string]*domain.NotificationSettings
	crisisRequests map[string]*domain.CrisisRequest
	encryptionKeys map[string]time.Time
	channelMeta    map[domain.ChannelId]*domain.ChannelMeta
	activity       []domain.ActivitySample
}

func NewStore(cfg *config.Public, storage Snapshots, ledger *Ledger, scheduler *Scheduler, now Clock) *Store {
	if now == nil {
		now = SystemClock
	}
	s := &Store{
		cfg:            cfg,
		storage:        storage,
		ledger:         ledger,
		scheduler:      scheduler,
		now:            now,
		classifier:     permissiveClassifier{},
		crisis:         noCrisis{},
		posts:          make(map[domain.PostId]*domain.Post),
		bookmarks:      make(map[domain.PostId]bool),
		settings:       make(map[string]*domain.NotificationSettings),
		crisisRequests: make(map[string]*domain.CrisisRequest),
		encryptionKeys: make(map[string]time.Time),
		channelMeta:    make(map[domain.ChannelId]*domain.ChannelMeta),
	}
	ledger.SetStatsProvider(s.engagementStats)
	// observers fire under the ledger lock, often with the store lock also
	// held by the mutating operation; hop to a goroutine before re-locking
	ledger.OnAchievement(func(id string) {
		go s.PushNotification("", "achievement", "Achievement unlocked", id)
	})
	return s
}

// SetCollaborators injects the external classifier/crisis/encryption services.
// Nil keeps the permissive default.
func (s *Store) SetCollaborators(classifier Classifier, crisis CrisisDetector, encrypter Encrypter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if classifier != nil {
		s.classifier = classifier
	}
	if crisis != nil {
		s.crisis = crisis
	}
	if encrypter != nil {
		s.encrypter = encrypter
	}
}

// SetCrisisQueue injects the external request sync channel and subscribes to
// its event stream.
func (s *Store) SetCrisisQueue(q CrisisQueue) {
	s.mu.Lock()
	s.crisisQueue = q
	s.mu.Unlock()
	if q != nil {
		q.Subscribe(s.applyCrisisEvent)
	}
}

// applyCrisisEvent merges one pushed event into the owned request list.
func (s *Store) applyCrisisEvent(ev CrisisEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case CrisisEventCreated, CrisisEventUpdated:
		if ev.Request.Id == "" {
			return
		}
		req := ev.Request
		s.crisisRequests[req.Id] = &req
	case CrisisEventDeleted:
		delete(s.crisisRequests, ev.Request.Id)
	default:
		return
	}
	s.persistLocked(kv.NSCrisisRequests, s.crisisRequests)
}

// CrisisRequests returns the merged request list, oldest first.
func (s *Store) CrisisRequests() []domain.CrisisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CrisisRequest, 0, len(s.crisisRequests))
	for _, r := range s.crisisRequests {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// EncryptionKeys returns the key ids referenced by stored ciphertext, with
// the time each was first seen.
func (s *Store) EncryptionKeys() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Time, len(s.encryptionKeys))
	for k, v := range s.encryptionKeys {
		out[k] = v
	}
	return out
}

// ChannelMeta returns the posting metadata for one channel.
func (s *Store) ChannelMeta(id domain.ChannelId) (domain.ChannelMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.channelMeta[id]
	if !ok {
		return domain.ChannelMeta{}, false
	}
	return *meta, true
}

// RecordActivitySample appends one engagement snapshot to the bounded
// sample history and persists it.
func (s *Store) RecordActivitySample() domain.ActivitySample {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample := domain.ActivitySample{At: s.now(), Posts: len(s.posts)}
	for _, p := range s.posts {
		sample.Reactions += p.TotalReactions()
		sample.Comments += len(p.Comments)
	}
	s.activity = append(s.activity, sample)
	if len(s.activity) > activitySampleCap {
		s.activity = s.activity[len(s.activity)-activitySampleCap:]
	}
	s.persistLocked(kv.NSActivity, s.activity)
	return sample
}

// ActivitySamples returns a copy of the sample history, oldest first.
func (s *Store) ActivitySamples() []domain.ActivitySample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ActivitySample(nil), s.activity...)
}

// Load rehydrates every namespace, seeds defaults once, deletes posts whose
// deadline elapsed while the process was down, and re-arms the remaining
// timers. Corrupt namespaces fall back to empty defaults.
func (s *Store) Load() error {
	s.mu.Lock()

	var posts []*domain.Post
	if found, err := s.storage.Load(kv.NSPosts, &posts); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to load posts: %w", err)
	} else if found {
		for _, p := range posts {
			if p == nil || p.Id == "" {
				continue // malformed entry dropped, not a hard failure
			}
			s.normalizePost(p)
			s.posts[p.Id] = p
		}
	}

	var bookmarks []domain.PostId
	if _, err := s.storage.Load(kv.NSBookmarks, &bookmarks); err != nil {
		s.mu.Unlock()
		return err
	}
	for _, id := range bookmarks {
		s.bookmarks[id] = true
	}

	if _, err := s.storage.Load(kv.NSReports, &s.reports); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, err := s.storage.Load(kv.NSNotifications, &s.notifications); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, err := s.storage.Load(kv.NSCommunities, &s.communities); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, err := s.storage.Load(kv.NSChannels, &s.channels); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, err := s.storage.Load(kv.NSMemberships, &s.memberships); err != nil {
		s.mu.Unlock()
		return err
	}
	var settingsList []*domain.NotificationSettings
	if _, err := s.storage.Load(kv.NSNotifySettings, &settingsList); err != nil {
		s.mu.Unlock()
		return err
	}
	for _, st := range settingsList {
		if st != nil {
			s.settings[settingsKey(st.CommunityId, st.StudentId)] = st
		}
	}
	if _, err := s.storage.Load(kv.NSCrisisRequests, &s.crisisRequests); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, err := s.storage.Load(kv.NSEncryptionKeys, &s.encryptionKeys); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, err := s.storage.Load(kv.NSChannelMeta, &s.channelMeta); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, err := s.storage.Load(kv.NSActivity, &s.activity); err != nil {
		s.mu.Unlock()
		return err
	}

	s.seedDefaultsLocked()

	live := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		live = append(live, p)
	}
	s.mu.Unlock()

	// elapsed deadlines delete synchronously before the first read
	s.scheduler.Resume(live)
	return nil
}

func (s *Store) normalizePost(p *domain.Post) {
	if p.Reactions == nil {
		p.Reactions = make(map[domain.ReactionKind]int)
	}
	// invariant: expiresAt is null iff lifetime is never
	if p.Lifetime == domain.LifetimeNever {
		p.ExpiresAt = nil
	}
	if !p.Lifetime.Valid() {
		p.Lifetime = domain.LifetimeNever
		p.ExpiresAt = nil
	}
}

func (s *Store) seedDefaultsLocked() {
	var version int
	if _, err := s.storage.Load(kv.NSSeedVersion, &version); err != nil {
		logger.Log.Warn("failed to read seed version", "component", "store", "error", err)
	}
	if version >= seedVersion {
		return
	}

	community := &domain.Community{
		Id:        "campus-general",
		Name:      "Campus General",
		Campus:    "main",
		CreatedAt: s.now(),
	}
	s.communities = append(s.communities, community)
	for _, name := range []string{"general", "support", "events"} {
		s.channels = append(s.channels, &domain.Channel{
			Id:          community.Id + ":" + name,
			CommunityId: community.Id,
			Name:        name,
		})
	}

	s.persistLocked(kv.NSCommunities, s.communities)
	s.persistLocked(kv.NSChannels, s.channels)
	s.persistLocked(kv.NSSeedVersion, seedVersion)
	logger.Log.Info("seeded default communities", "component", "store", "version", seedVersion)
}

// CreatePost validates and stores a new post, schedules its expiry, credits
// the author and fans the event out to community memberships.
func (s *Store) CreatePost(input CreatePostInput) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input.Content == "" {
		return nil, &errors.ValidationError{Message: "content must not be empty"}
	}
	if !input.Lifetime.Valid() {
		return nil, &errors.ValidationError{Message: "unknown lifetime policy"}
	}
	if input.Lifetime == domain.LifetimeCustom &&
		(input.CustomHours < 1 || input.CustomHours > s.cfg.Lifetime.MaxCustomHours) {
		return nil, &errors.ValidationError{Message: "custom duration out of range"}
	}
	if input.Community != nil {
		m := s.membershipLocked(input.Community.CommunityId, input.AuthorId)
		if m == nil || !m.Active {
			return nil, &errors.ValidationError{Message: "not a member of this community"}
		}
		if m.Banned {
			if m.BannedUntil != nil && !m.BannedUntil.After(s.now()) {
				m.Banned = false
				m.BannedUntil = nil
				s.persistLocked(kv.NSMemberships, s.memberships)
			} else {
				return nil, &errors.ValidationError{Message: "banned from this community"}
			}
		}
	}

	verdict := s.classifier.Classify(input.Content)
	if verdict.Blocked {
		return nil, &errors.ValidationError{Message: "content rejected by moderation"}
	}

	now := s.now()
	post := &domain.Post{
		Id:         uuid.NewString(),
		AuthorId:   input.AuthorId,
		Content:    input.Content,
		Category:   input.Category,
		Reactions:  make(map[domain.ReactionKind]int),
		Lifetime:   input.Lifetime,
		Community:  input.Community,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	flagged, severity := s.crisis.Detect(input.Content)
	if flagged {
		post.CrisisFlagged = true
	}

	if input.Encrypted && s.encrypter != nil {
		blob, err := s.encrypter.Encrypt(input.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt content: %w", err)
		}
		post.Encrypted = true
		post.Ciphertext = blob
		post.Content = ""
		if blob.KeyId != "" {
			if _, known := s.encryptionKeys[blob.KeyId]; !known {
				s.encryptionKeys[blob.KeyId] = now
				s.persistLocked(kv.NSEncryptionKeys, s.encryptionKeys)
			}
		}
	}

	if dur, ok := input.Lifetime.Duration(input.CustomHours); ok {
		deadline := now.Add(dur)
		post.ExpiresAt = &deadline
	}

	s.posts[post.Id] = post

	s.ledger.CreditOnce(input.AuthorId, s.cfg.Rewards.FirstPost,
		"first post bonus", domain.CategoryPosts,
		"first-post:"+input.AuthorId, "author")
	s.ledger.CreditOnce(input.AuthorId, s.cfg.Rewards.DailyPost,
		"daily post", domain.CategoryPosts,
		"daily-post:"+now.Format(dateLayout), "author")
	s.ledger.TouchStreak(input.AuthorId)

	if post.Community != nil {
		n := FanOutPost(s.memberships, post, s.settingsLookupLocked)
		if n > 0 {
			s.persistLocked(kv.NSMemberships, s.memberships)
		}
		meta := s.channelMeta[post.Community.ChannelId]
		if meta == nil {
			meta = &domain.ChannelMeta{ChannelId: post.Community.ChannelId}
			s.channelMeta[post.Community.ChannelId] = meta
		}
		meta.PostCount++
		meta.LastPostAt = now
		s.persistLocked(kv.NSChannelMeta, s.channelMeta)
	}

	s.scheduleExpiryLocked(post)
	s.persistPostsLocked()

	if flagged && s.crisisQueue != nil {
		req := domain.CrisisRequest{
			Id:        uuid.NewString(),
			StudentId: post.AuthorId,
			PostId:    post.Id,
			Severity:  severity,
			Status:    domain.CrisisOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}
		// the queue may push the created event back synchronously through
		// the subscription, which re-locks the store; publish off the lock
		go func() {
			if err := s.crisisQueue.Create(req); err != nil {
				logger.Log.Error("failed to publish crisis request",
					"component", "store", "error", err)
			}
		}()
	}

	if verdict.NeedsReview {
		logger.Log.Info("post needs moderator review", "component", "store", "post_id", post.Id)
	}
	return post, nil
}

// React increments one of the six fixed reaction counters and credits the
// post author, idempotent per (post, reactor). Crossing the viral threshold
// grants the viral bonus exactly once and flips isViral.
func (s *Store) React(postId domain.PostId, kind domain.ReactionKind, reactorId domain.StudentId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return &errors.ValidationError{Message: "unknown reaction kind"}
	}
	post, ok := s.posts[postId]
	if !ok {
		return errors.NotFound
	}

	post.Reactions[kind]++
	post.ModifiedAt = s.now()

	if reactorId != post.AuthorId {
		s.ledger.CreditOnce(post.AuthorId, s.cfg.Rewards.Reaction,
			"reaction received", domain.CategoryReactions,
			fmt.Sprintf("reaction:%s:%s", postId, reactorId), "author")
	}

	if !post.ViralRewarded && post.TotalReactions() >= s.cfg.Rewards.ViralReactions {
		post.IsViral = true
		post.ViralRewarded = true
		s.ledger.CreditOnce(post.AuthorId, s.cfg.Rewards.Viral,
			"viral post bonus", domain.CategoryBonuses,
			"viral:"+postId, "author")
	}

	s.persistPostsLocked()
	return nil
}

// AddComment appends a comment to the post's flat arena. The commenter and
// the post author are credited, both idempotent per comment id.
func (s *Store) AddComment(postId domain.PostId, authorId domain.StudentId, content string, parentId *domain.CommentId) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if content == "" {
		return nil, &errors.ValidationError{Message: "content must not be empty"}
	}
	post, ok := s.posts[postId]
	if !ok {
		return nil, errors.NotFound
	}
	if parentId != nil && post.FindComment(*parentId) == nil {
		return nil, &errors.ValidationError{Message: "parent comment not found"}
	}

	comment := &domain.Comment{
		Id:        uuid.NewString(),
		PostId:    postId,
		ParentId:  parentId,
		AuthorId:  authorId,
		Content:   content,
		Reactions: make(map[domain.ReactionKind]int),
		CreatedAt: s.now(),
	}
	post.Comments = append(post.Comments, comment)
	post.ModifiedAt = comment.CreatedAt

	rewardId := "comment:" + comment.Id
	s.ledger.CreditOnce(authorId, s.cfg.Rewards.Comment,
		"comment posted", domain.CategoryComments, rewardId, "commenter")
	if post.AuthorId != authorId {
		s.ledger.CreditOnce(post.AuthorId, s.cfg.Rewards.CommentReceived,
			"comment received", domain.CategoryComments, rewardId, "author")
	}

	s.persistPostsLocked()
	return comment, nil
}

// MarkHelpful adds a helpful vote to a comment. Crossing the threshold
// awards the one-time helpful bonus; the awarded flag never resets.
func (s *Store) MarkHelpful(postId domain.PostId, commentId domain.CommentId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postId]
	if !ok {
		return errors.NotFound
	}
	comment := post.FindComment(commentId)
	if comment == nil {
		return errors.NotFound
	}

	comment.HelpfulVotes++
	if !comment.HelpfulRewardAwarded && comment.HelpfulVotes >= s.cfg.Rewards.HelpfulVotes {
		comment.HelpfulRewardAwarded = true
		s.ledger.CreditOnce(comment.AuthorId, s.cfg.Rewards.Helpful,
			"helpful comment milestone", domain.CategoryHelpful,
			"helpful:"+commentId, "author")
	}

	s.persistPostsLocked()
	return nil
}

// Report records a report against a post or comment and credits the
// reporter, idempotent per (target, reporter). Posts get blurred once the
// report count crosses the configured threshold.
func (s *Store) Report(targetType domain.ReportTargetType, targetId string, reporterId domain.StudentId, reportType, description string) (*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reportType == "" {
		return nil, &errors.ValidationError{Message: "report type must not be empty"}
	}

	var post *domain.Post
	switch targetType {
	case domain.ReportTargetPost:
		p, ok := s.posts[targetId]
		if !ok {
			return nil, errors.NotFound
		}
		post = p
	case domain.ReportTargetComment:
		found := false
		for _, p := range s.posts {
			if p.FindComment(targetId) != nil {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.NotFound
		}
	default:
		return nil, &errors.ValidationError{Message: "unknown report target type"}
	}

	report := domain.Report{
		Id:          uuid.NewString(),
		TargetType:  targetType,
		TargetId:    targetId,
		ReporterId:  reporterId,
		ReportType:  reportType,
		Description: description,
		CreatedAt:   s.now(),
	}
	s.reports = append(s.reports, report)

	s.ledger.CreditOnce(reporterId, s.cfg.Rewards.Report,
		"report filed", domain.CategoryReporting,
		fmt.Sprintf("report:%s:%s", targetId, reporterId), "reporter")

	if post != nil {
		post.ReportCount++
		if post.ReportCount >= s.cfg.ReportBlurCount {
			post.Blurred = true
		}
		s.persistPostsLocked()
	}
	s.persistLocked(kv.NSReports, s.reports)
	return &report, nil
}

// ToggleBookmark flips a post bookmark and returns the new state.
func (s *Store) ToggleBookmark(postId domain.PostId) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postId]; !ok {
		return false, errors.NotFound
	}
	s.bookmarks[postId] = !s.bookmarks[postId]
	bookmarked := s.bookmarks[postId]
	if !bookmarked {
		delete(s.bookmarks, postId)
	}
	s.persistBookmarksLocked()
	return bookmarked, nil
}

// ExtendLifetime charges the fixed extension cost, cancels the old timer,
// pushes the deadline out from the *old* deadline, clears the expiry warning
// and rearms.
func (s *Store) ExtendLifetime(postId domain.PostId) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postId]
	if !ok {
		return nil, errors.NotFound
	}
	if post.ExpiresAt == nil {
		return nil, &errors.ValidationError{Message: "post has no expiry to extend"}
	}

	if _, err := s.ledger.Debit(s.cfg.Lifetime.ExtensionCost,
		"lifetime extension", map[string]string{"postId": postId}); err != nil {
		return nil, err
	}

	s.scheduler.ClearExpiry(postId)
	deadline := post.ExpiresAt.Add(time.Duration(s.cfg.Lifetime.ExtensionHours) * time.Hour)
	post.ExpiresAt = &deadline
	post.ExpiryWarningShown = false
	post.ModifiedAt = s.now()
	s.scheduleExpiryLocked(post)

	s.persistPostsLocked()
	return post, nil
}

// DeletePost removes a post and every timer belonging to it.
func (s *Store) DeletePost(postId domain.PostId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postId]; !ok {
		return errors.NotFound
	}
	s.deletePostLocked(postId)
	return nil
}

func (s *Store) deletePostLocked(postId domain.PostId) {
	delete(s.posts, postId)
	delete(s.bookmarks, postId)
	s.scheduler.ClearAllForPost(postId)
	s.persistPostsLocked()
	s.persistBookmarksLocked()
}

// ExpirePost implements SchedulerTarget: fire-and-forget deletion. A fired
// timer can be blocked on the mutex while an extension moves the deadline,
// so the deadline is re-checked before deleting anything.
func (s *Store) ExpirePost(id domain.PostId) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return
	}
	if post.ExpiresAt == nil || post.ExpiresAt.After(s.now()) {
		return // stale timer, deadline moved after it fired
	}
	s.deletePostLocked(id)
	logger.Log.Info("post expired", "component", "store", "post_id", id)
}

// ExpireBoost implements SchedulerTarget: clears the boost flag and emits a
// boost-expired notification. Stale fires against a re-armed or cleared
// boost are ignored.
func (s *Store) ExpireBoost(id domain.PostId, kind BoostKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return
	}
	until := boostDeadline(post, kind)
	if until == nil || until.After(s.now()) {
		return
	}
	s.expireBoostLocked(post, kind)
	s.persistPostsLocked()
}

func boostDeadline(post *domain.Post, kind BoostKind) *time.Time {
	switch kind {
	case BoostPin:
		return post.PinnedUntil
	case BoostHighlight:
		return post.HighlightedUntil
	case BoostCrossCampus:
		return post.CrossCampusUntil
	}
	return nil
}

func (s *Store) expireBoostLocked(post *domain.Post, kind BoostKind) {
	switch kind {
	case BoostPin:
		post.Pinned = false
		post.PinnedUntil = nil
	case BoostHighlight:
		post.Highlighted = false
		post.HighlightedUntil = nil
	case BoostCrossCampus:
		post.CrossCampus = false
		post.CrossCampusUntil = nil
	}
	s.pushNotificationLocked(post.AuthorId, "boost_expired",
		"Boost expired", fmt.Sprintf("The %s boost on your post ended", kind))
}

// scheduleBoostLocked arms the revert timer, or applies the expiry right
// away when the deadline already passed. The scheduler's own synchronous
// fire path cannot be used here: it would call back into ExpireBoost while
// this goroutine still holds the store mutex.
func (s *Store) scheduleBoostLocked(post *domain.Post, kind BoostKind, until time.Time) {
	if !until.After(s.now()) {
		s.expireBoostLocked(post, kind)
		return
	}
	s.scheduler.ScheduleBoost(post.Id, kind, until)
}

// scheduleExpiryLocked mirrors scheduleBoostLocked for the deletion timer.
func (s *Store) scheduleExpiryLocked(post *domain.Post) {
	if post.ExpiresAt == nil {
		return
	}
	if !post.ExpiresAt.After(s.now()) {
		s.deletePostLocked(post.Id)
		logger.Log.Info("post expired", "component", "store", "post_id", post.Id)
		return
	}
	s.scheduler.ScheduleExpiry(post)
}

// ArchiveOlderThan marks posts older than the cutoff as archived without
// deleting them. Returns the number of posts archived.
func (s *Store) ArchiveOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	archived := 0
	for _, post := range s.posts {
		if post.Archived || !post.CreatedAt.Before(cutoff) {
			continue
		}
		at := s.now()
		post.Archived = true
		post.ArchivedAt = &at
		archived++
	}
	if archived > 0 {
		s.persistPostsLocked()
	}
	return archived
}

// JoinCommunity creates an active membership, or reactivates an existing one.
func (s *Store) JoinCommunity(communityId domain.CommunityId, studentId domain.StudentId, role domain.Role) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.communityLocked(communityId) == nil {
		return nil, errors.NotFound
	}
	if m := s.membershipLocked(communityId, studentId); m != nil {
		m.Active = true
		s.persistLocked(kv.NSMemberships, s.memberships)
		return m, nil
	}

	m := &domain.Membership{
		Id:          uuid.NewString(),
		CommunityId: communityId,
		StudentId:   studentId,
		Role:        role,
		Active:      true,
		JoinedAt:    s.now(),
	}
	s.memberships = append(s.memberships, m)
	s.persistLocked(kv.NSMemberships, s.memberships)
	return m, nil
}

// MarkCommunityRead resets one membership's unread counters.
func (s *Store) MarkCommunityRead(communityId domain.CommunityId, studentId domain.StudentId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.membershipLocked(communityId, studentId)
	if m == nil {
		return errors.NotFound
	}
	MarkCommunityRead(m, s.now())
	s.persistLocked(kv.NSMemberships, s.memberships)
	return nil
}

// SetChannelMuted flips a channel notification override for one student.
func (s *Store) SetChannelMuted(communityId domain.CommunityId, studentId domain.StudentId, channel domain.ChannelId, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.settingsLocked(communityId, studentId)
	SetChannelMute(settings, channel, muted)
	s.persistSettingsLocked()
}

// UpdateNotificationSettings replaces the stored toggles for one pair.
func (s *Store) UpdateNotificationSettings(updated domain.NotificationSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.settingsLocked(updated.CommunityId, updated.StudentId)
	settings.MuteAll = updated.MuteAll
	settings.NotifyOnPost = updated.NotifyOnPost
	settings.NotifyOnMention = updated.NotifyOnMention
	settings.NotifyOnReply = updated.NotifyOnReply
	if updated.ChannelOverrides != nil {
		settings.ChannelOverrides = updated.ChannelOverrides
	}
	s.persistSettingsLocked()
}

// IsModerator reports whether the student holds a moderator capability in
// the community.
func (s *Store) IsModerator(communityId domain.CommunityId, studentId domain.StudentId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.membershipLocked(communityId, studentId)
	return m != nil && m.Active && m.Role.CanModerate()
}

// GetPost returns one post.
func (s *Store) GetPost(id domain.PostId) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, errors.NotFound
	}
	return post, nil
}

// Posts returns all live posts.
func (s *Store) Posts() []*domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	return out
}

// Membership returns the membership for one (community, student) pair.
func (s *Store) Membership(communityId domain.CommunityId, studentId domain.StudentId) *domain.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.membershipLocked(communityId, studentId)
}

// Communities returns the community definitions.
func (s *Store) Communities() []*domain.Community {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Community(nil), s.communities...)
}

// Reports returns the recorded reports.
func (s *Store) Reports() []domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Report(nil), s.reports...)
}

// Notifications returns the capped notification feed, newest first.
func (s *Store) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notifications...)
}

// Bookmarks returns the bookmarked post ids.
func (s *Store) Bookmarks() []domain.PostId {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.PostId, 0, len(s.bookmarks))
	for id := range s.bookmarks {
		out = append(out, id)
	}
	return out
}

// PushNotification appends a feed record, trimming to the configured cap.
func (s *Store) PushNotification(studentId domain.StudentId, kind, title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushNotificationLocked(studentId, kind, title, body)
	s.persistLocked(kv.NSNotifications, s.notifications)
}

// --- internals ---

func (s *Store) engagementStats() EngagementStats {
	// called from the ledger while the store lock may already be held by the
	// mutating operation, so no locking here; single-writer discipline keeps
	// this safe
	stats := EngagementStats{}
	for _, p := range s.posts {
		stats.TotalReactions += p.TotalReactions()
		if p.IsViral {
			stats.ViralPosts++
		}
	}
	return stats
}

func (s *Store) membershipLocked(communityId domain.CommunityId, studentId domain.StudentId) *domain.Membership {
	for _, m := range s.memberships {
		if m.CommunityId == communityId && m.StudentId == studentId {
			return m
		}
	}
	return nil
}

func (s *Store) communityLocked(id domain.CommunityId) *domain.Community {
	for _, c := range s.communities {
		if c.Id == id {
			return c
		}
	}
	return nil
}

func (s *Store) settingsLocked(communityId domain.CommunityId, studentId domain.StudentId) *domain.NotificationSettings {
	key := settingsKey(communityId, studentId)
	if st, ok := s.settings[key]; ok {
		return st
	}
	st := &domain.NotificationSettings{
		CommunityId:  communityId,
		StudentId:    studentId,
		NotifyOnPost: true,
	}
	s.settings[key] = st
	return st
}

func (s *Store) settingsLookupLocked(communityId domain.CommunityId, studentId domain.StudentId) *domain.NotificationSettings {
	return s.settings[settingsKey(communityId, studentId)]
}

func (s *Store) pushNotificationLocked(studentId domain.StudentId, kind, title, body string) {
	s.notifications = append([]domain.Notification{{
		Id:        uuid.NewString(),
		StudentId: studentId,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: s.now(),
	}}, s.notifications...)
	if len(s.notifications) > s.cfg.NotificationsCap {
		s.notifications = s.notifications[:s.cfg.NotificationsCap]
	}
}

func (s *Store) persistPostsLocked() {
	posts := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p)
	}
	s.persistLocked(kv.NSPosts, posts)
}

func (s *Store) persistBookmarksLocked() {
	ids := make([]domain.PostId, 0, len(s.bookmarks))
	for id := range s.bookmarks {
		ids = append(ids, id)
	}
	s.persistLocked(kv.NSBookmarks, ids)
}

func (s *Store) persistSettingsLocked() {
	list := make([]*domain.NotificationSettings, 0, len(s.settings))
	for _, st := range s.settings {
		list = append(list, st)
	}
	s.persistLocked(kv.NSNotifySettings, list)
}

func (s *Store) persistLocked(namespace string, value any) {
	if err := s.storage.Save(namespace, value); err != nil {
		logger.Log.Error("failed to persist namespace",
			"component", "store", "namespace", namespace, "error", err)
	}
}

func settingsKey(communityId domain.CommunityId, studentId domain.StudentId) string {
	return communityId + "|" + studentId
}
