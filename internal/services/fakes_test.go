package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
)

// memStore - in-memory состояние для тестов сервисов.
// memTransactor откатывает его к снимку, если fn вернул ошибку.
type memStore struct {
	nextID        uint64
	users         map[uint64]models.User
	addresses     map[uint64]models.Address
	jobs          map[uint64]models.Job
	applications  map[uint64]models.JobApplication
	reviews       map[uint64]models.JobReview
	sos           map[uint64]models.SOSRequest
	helpers       map[uint64]models.SOSHelper
	bans          map[uint64]models.UserBan
	actions       []models.AdminAction
	complaints    map[uint64]models.BanComplaint
	notifications map[uint64]models.Notification
	sessions      map[string]models.UserSession
	entries       []models.PointsEntry

	ledgerErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uint64]models.User{},
		addresses:     map[uint64]models.Address{},
		jobs:          map[uint64]models.Job{},
		applications:  map[uint64]models.JobApplication{},
		reviews:       map[uint64]models.JobReview{},
		sos:           map[uint64]models.SOSRequest{},
		helpers:       map[uint64]models.SOSHelper{},
		bans:          map[uint64]models.UserBan{},
		complaints:    map[uint64]models.BanComplaint{},
		notifications: map[uint64]models.Notification{},
		sessions:      map[string]models.UserSession{},
	}
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneJob(j models.Job) models.Job {
	if j.AdditionalInfo != nil {
		info := datatypes.JSONMap{}
		for k, v := range j.AdditionalInfo {
			info[k] = v
		}
		j.AdditionalInfo = info
	}
	return j
}

func (s *memStore) snapshot() *memStore {
	snap := *s
	snap.users = copyMap(s.users)
	snap.addresses = copyMap(s.addresses)
	snap.jobs = map[uint64]models.Job{}
	for k, v := range s.jobs {
		snap.jobs[k] = cloneJob(v)
	}
	snap.applications = copyMap(s.applications)
	snap.reviews = copyMap(s.reviews)
	snap.sos = copyMap(s.sos)
	snap.helpers = copyMap(s.helpers)
	snap.bans = copyMap(s.bans)
	snap.actions = append([]models.AdminAction(nil), s.actions...)
	snap.complaints = copyMap(s.complaints)
	snap.notifications = copyMap(s.notifications)
	snap.sessions = copyMap(s.sessions)
	snap.entries = append([]models.PointsEntry(nil), s.entries...)
	return &snap
}

func (s *memStore) restore(snap *memStore) {
	ledgerErr := s.ledgerErr
	*s = *snap
	s.ledgerErr = ledgerErr
}

func (s *memStore) addUser(u models.User) *models.User {
	if u.ID == 0 {
		u.ID = s.id()
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	if u.Role == "" {
		u.Role = models.UserRoleUser
	}
	if u.Email == "" {
		u.Email = fmt.Sprintf("user%d@example.com", u.ID)
	}
	s.users[u.ID] = u
	return &u
}

func (s *memStore) addJob(j models.Job) *models.Job {
	j.ID = s.id()
	if j.Status == "" {
		j.Status = models.JobStatusPending
	}
	s.jobs[j.ID] = cloneJob(j)
	return &j
}

func (s *memStore) user(id uint64) models.User {
	return s.users[id]
}

func (s *memStore) job(id uint64) models.Job {
	return s.jobs[id]
}

func (s *memStore) notificationsOf(userID uint64, typ string) []models.Notification {
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && (typ == "" || n.Type == typ) {
			out = append(out, n)
		}
	}
	return out
}

func paginateSlice[T any](items []T, p repositories.Pagination) ([]T, int64) {
	total := int64(len(items))
	start := p.Offset()
	if start >= len(items) {
		return []T{}, total
	}
	end := start + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}

// ---------------- Transactor ----------------

type memTransactor struct{ store *memStore }

func (t memTransactor) WithinTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	snap := t.store.snapshot()
	if err := fn(db); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// ---------------- Users ----------------

type memUserRepo struct{ store *memStore }

func (r memUserRepo) FindByID(_ *gorm.DB, id uint64) (*models.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r memUserRepo) FindByIDForUpdate(db *gorm.DB, id uint64) (*models.User, error) {
	return r.FindByID(db, id)
}

func (r memUserRepo) FindByEmail(_ *gorm.DB, email string) (*models.User, error) {
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r memUserRepo) Create(_ *gorm.DB, user *models.User) error {
	if _, err := r.FindByEmail(nil, user.Email); err == nil {
		return repositories.ErrUserAlreadyExists
	}
	*user = *r.store.addUser(*user)
	return nil
}

func (r memUserRepo) ExistsByRole(_ *gorm.DB, role models.UserRole) (bool, error) {
	for _, u := range r.store.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r memUserRepo) update(id uint64, fn func(u *models.User)) error {
	u, ok := r.store.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	fn(&u)
	r.store.users[id] = u
	return nil
}

func (r memUserRepo) UpdateRating(_ *gorm.DB, userID uint64, rating float64) error {
	return r.update(userID, func(u *models.User) { u.Rating = rating })
}

func (r memUserRepo) IncrementCounter(_ *gorm.DB, userID uint64, counter string, delta int) error {
	return r.update(userID, func(u *models.User) {
		switch counter {
		case repositories.CounterCompletedJobs:
			u.CompletedJobs += delta
		case repositories.CounterCompletedSOS:
			u.CompletedSOS += delta
		case repositories.CounterHelpedSOS:
			u.HelpedSOS += delta
		}
	})
}

func (r memUserRepo) UpdateLocation(_ *gorm.DB, userID uint64, lat, lon float64, address *string, at time.Time) error {
	return r.update(userID, func(u *models.User) {
		u.CurrentLatitude = &lat
		u.CurrentLongitude = &lon
		u.CurrentAddress = address
		u.LocationUpdatedAt = &at
	})
}

func (r memUserRepo) SaveBan(_ *gorm.DB, user *models.User) error {
	return r.update(user.ID, func(u *models.User) {
		u.IsBanned = user.IsBanned
		u.BanStartedAt = user.BanStartedAt
		u.BannedUntil = user.BannedUntil
		u.BanReason = user.BanReason
		u.LastBannedBy = user.LastBannedBy
	})
}

func (r memUserRepo) ClearBan(_ *gorm.DB, userID uint64) error {
	return r.update(userID, func(u *models.User) { u.ClearBan() })
}

func (r memUserRepo) FindWithLocationNear(_ *gorm.DB, _ float64, _ float64, excludeID uint64) ([]models.User, error) {
	var out []models.User
	for _, u := range r.store.users {
		if u.ID != excludeID && u.HasCurrentLocation() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUserRepo) FindLeaderboardCandidates(_ *gorm.DB, category *models.JobCategory) ([]repositories.LeaderboardCandidate, error) {
	var out []repositories.LeaderboardCandidate
	for _, u := range r.store.users {
		if !IsEligible(&u) {
			continue
		}
		c := repositories.LeaderboardCandidate{User: u}
		if category != nil {
			for _, j := range r.store.jobs {
				if j.IsAssignedTo(u.ID) && j.Category == *category && j.Status == models.JobStatusCompleted {
					c.CategoryJobsCount++
				}
			}
			if c.CategoryJobsCount == 0 {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (r memUserRepo) TotalEarnings(_ *gorm.DB, userIDs []uint64) (map[uint64]decimal.Decimal, error) {
	out := map[uint64]decimal.Decimal{}
	for _, id := range userIDs {
		sum := decimal.Zero
		for _, j := range r.store.jobs {
			if j.IsAssignedTo(id) && j.Status == models.JobStatusCompleted {
				sum = sum.Add(j.Price)
			}
		}
		out[id] = sum
	}
	return out, nil
}

func (r memUserRepo) FindWithFilter(_ *gorm.DB, filter repositories.UserFilter) ([]models.User, int64, error) {
	var out []models.User
	for _, u := range r.store.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status == "banned" && !u.IsBanned || filter.Status == "active" && u.IsBanned {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.Name+" "+u.Email), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	items, total := paginateSlice(out, filter.Pagination)
	return items, total, nil
}

func (r memUserRepo) CountAll(_ *gorm.DB) (int64, error) {
	return int64(len(r.store.users)), nil
}

func (r memUserRepo) CountBanned(_ *gorm.DB) (int64, error) {
	var n int64
	for _, u := range r.store.users {
		if u.IsBanned {
			n++
		}
	}
	return n, nil
}

// ---------------- Ledger ----------------

type memLedgerRepo struct{ store *memStore }

func (r memLedgerRepo) LockBalance(_ *gorm.DB, userID uint64) (int, error) {
	if r.store.ledgerErr != nil {
		return 0, r.store.ledgerErr
	}
	u, ok := r.store.users[userID]
	if !ok {
		return 0, repositories.ErrUserNotFound
	}
	return u.TotalPoints, nil
}

func (r memLedgerRepo) SaveBalance(_ *gorm.DB, userID uint64, balance int) error {
	return memUserRepo(r).update(userID, func(u *models.User) { u.TotalPoints = balance })
}

func (r memLedgerRepo) AppendEntry(_ *gorm.DB, entry *models.PointsEntry) error {
	entry.ID = r.store.id()
	r.store.entries = append(r.store.entries, *entry)
	return nil
}

func (r memLedgerRepo) FindEntries(_ *gorm.DB, userID uint64, page repositories.Pagination) ([]models.PointsEntry, int64, error) {
	var out []models.PointsEntry
	for _, e := range r.store.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	items, total := paginateSlice(out, page)
	return items, total, nil
}

// ---------------- Jobs ----------------

type memJobRepo struct{ store *memStore }

func (r memJobRepo) Create(_ *gorm.DB, job *models.Job) error {
	job.ID = r.store.id()
	r.store.jobs[job.ID] = cloneJob(*job)
	return nil
}

func (r memJobRepo) FindByID(_ *gorm.DB, id uint64) (*models.Job, error) {
	j, ok := r.store.jobs[id]
	if !ok {
		return nil, repositories.ErrJobNotFound
	}
	j = cloneJob(j)
	return &j, nil
}

func (r memJobRepo) FindByIDForUpdate(db *gorm.DB, id uint64) (*models.Job, error) {
	return r.FindByID(db, id)
}

func (r memJobRepo) Save(_ *gorm.DB, job *models.Job) error {
	r.store.jobs[job.ID] = cloneJob(*job)
	return nil
}

func (r memJobRepo) Delete(_ *gorm.DB, id uint64) error {
	if _, ok := r.store.jobs[id]; !ok {
		return repositories.ErrJobNotFound
	}
	delete(r.store.jobs, id)
	return nil
}

func (r memJobRepo) sorted(keep func(j models.Job) bool) []models.Job {
	var out []models.Job
	for _, j := range r.store.jobs {
		if keep(j) {
			out = append(out, cloneJob(j))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID > out[k].ID })
	return out
}

func (r memJobRepo) FindPublic(_ *gorm.DB, filter repositories.JobFilter) ([]models.Job, int64, error) {
	out := r.sorted(func(j models.Job) bool {
		return j.AssignedWorkerID == nil && j.Status != models.JobStatusCancelled && !j.IsPrivate() &&
			(filter.Status == "" || j.Status == filter.Status) &&
			(filter.Category == nil || j.Category == *filter.Category)
	})
	items, total := paginateSlice(out, filter.Pagination)
	return items, total, nil
}

func (r memJobRepo) FindOpenNear(_ *gorm.DB, _ float64, _ float64, category *models.JobCategory) ([]models.Job, error) {
	return r.sorted(func(j models.Job) bool {
		return category == nil || j.Category == *category
	}), nil
}

func (r memJobRepo) FindByCustomer(_ *gorm.DB, customerID uint64, page repositories.Pagination) ([]models.Job, int64, error) {
	items, total := paginateSlice(r.sorted(func(j models.Job) bool { return j.CustomerID == customerID }), page)
	return items, total, nil
}

func (r memJobRepo) FindByWorker(_ *gorm.DB, workerID uint64, page repositories.Pagination) ([]models.Job, int64, error) {
	items, total := paginateSlice(r.sorted(func(j models.Job) bool { return j.IsAssignedTo(workerID) }), page)
	return items, total, nil
}

func (r memJobRepo) FindForAdmin(_ *gorm.DB, filter repositories.AdminJobFilter) ([]models.Job, int64, error) {
	out := r.sorted(func(j models.Job) bool {
		if filter.Status != "" && j.Status != filter.Status {
			return false
		}
		return !filter.OnlyFlagged || j.AdminCancelReason != nil || j.Status == models.JobStatusDisputed
	})
	items, total := paginateSlice(out, filter.Pagination)
	return items, total, nil
}

func (r memJobRepo) CountByStatuses(_ *gorm.DB, statuses ...models.JobStatus) (int64, error) {
	var n int64
	for _, j := range r.store.jobs {
		for _, s := range statuses {
			if j.Status == s {
				n++
			}
		}
	}
	return n, nil
}

// ---------------- Applications ----------------

type memApplicationRepo struct{ store *memStore }

func (r memApplicationRepo) Create(_ *gorm.DB, a *models.JobApplication) error {
	for _, existing := range r.store.applications {
		if existing.JobID == a.JobID && existing.WorkerID == a.WorkerID {
			return repositories.ErrApplicationAlreadyExists
		}
	}
	a.ID = r.store.id()
	r.store.applications[a.ID] = *a
	return nil
}

func (r memApplicationRepo) FindByID(_ *gorm.DB, id uint64) (*models.JobApplication, error) {
	a, ok := r.store.applications[id]
	if !ok {
		return nil, repositories.ErrApplicationNotFound
	}
	return &a, nil
}

func (r memApplicationRepo) FindByIDForUpdate(db *gorm.DB, id uint64) (*models.JobApplication, error) {
	return r.FindByID(db, id)
}

func (r memApplicationRepo) FindByJobAndWorker(_ *gorm.DB, jobID, workerID uint64) (*models.JobApplication, error) {
	for _, a := range r.store.applications {
		if a.JobID == jobID && a.WorkerID == workerID {
			a := a
			return &a, nil
		}
	}
	return nil, repositories.ErrApplicationNotFound
}

func (r memApplicationRepo) FindByJob(_ *gorm.DB, jobID uint64) ([]models.JobApplication, error) {
	var out []models.JobApplication
	for _, a := range r.store.applications {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memApplicationRepo) FindByWorker(_ *gorm.DB, workerID uint64, page repositories.Pagination) ([]models.JobApplication, int64, error) {
	var out []models.JobApplication
	for _, a := range r.store.applications {
		if a.WorkerID == workerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	items, total := paginateSlice(out, page)
	return items, total, nil
}

func (r memApplicationRepo) UpdateStatus(_ *gorm.DB, id uint64, status models.ApplicationStatus) error {
	a, ok := r.store.applications[id]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	a.Status = status
	r.store.applications[id] = a
	return nil
}

func (r memApplicationRepo) Reactivate(_ *gorm.DB, id uint64, message *string, at time.Time) error {
	a, ok := r.store.applications[id]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	a.Status = models.ApplicationStatusPending
	a.AppliedAt = at
	a.Message = message
	r.store.applications[id] = a
	return nil
}

func (r memApplicationRepo) RejectPending(_ *gorm.DB, jobID uint64, exceptID uint64) ([]uint64, error) {
	var workers []uint64
	for id, a := range r.store.applications {
		if a.JobID == jobID && a.Status == models.ApplicationStatusPending && id != exceptID {
			a.Status = models.ApplicationStatusRejected
			r.store.applications[id] = a
			workers = append(workers, a.WorkerID)
		}
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i] < workers[j] })
	return workers, nil
}

// ---------------- Reviews ----------------

type memReviewRepo struct{ store *memStore }

func (r memReviewRepo) Upsert(_ *gorm.DB, review *models.JobReview) error {
	for id, existing := range r.store.reviews {
		if existing.JobID == review.JobID && existing.ReviewerID == review.ReviewerID {
			existing.Rating = review.Rating
			existing.Comment = review.Comment
			existing.RevieweeID = review.RevieweeID
			r.store.reviews[id] = existing
			*review = existing
			return nil
		}
	}
	review.ID = r.store.id()
	r.store.reviews[review.ID] = *review
	return nil
}

func (r memReviewRepo) FindByID(_ *gorm.DB, id uint64) (*models.JobReview, error) {
	rv, ok := r.store.reviews[id]
	if !ok {
		return nil, repositories.ErrReviewNotFound
	}
	return &rv, nil
}

func (r memReviewRepo) FindByJobAndReviewer(_ *gorm.DB, jobID, reviewerID uint64) (*models.JobReview, error) {
	for _, rv := range r.store.reviews {
		if rv.JobID == jobID && rv.ReviewerID == reviewerID {
			rv := rv
			return &rv, nil
		}
	}
	return nil, repositories.ErrReviewNotFound
}

func (r memReviewRepo) FindByReviewee(_ *gorm.DB, revieweeID uint64, page repositories.Pagination) ([]models.JobReview, int64, error) {
	out := r.filter(func(rv models.JobReview) bool { return rv.RevieweeID == revieweeID })
	items, total := paginateSlice(out, page)
	return items, total, nil
}

func (r memReviewRepo) filter(keep func(rv models.JobReview) bool) []models.JobReview {
	var out []models.JobReview
	for _, rv := range r.store.reviews {
		if keep(rv) {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memReviewRepo) Delete(_ *gorm.DB, id uint64) error {
	if _, ok := r.store.reviews[id]; !ok {
		return repositories.ErrReviewNotFound
	}
	delete(r.store.reviews, id)
	return nil
}

func (r memReviewRepo) AverageForReviewee(_ *gorm.DB, revieweeID uint64) (float64, int64, error) {
	var sum, n int64
	for _, rv := range r.store.reviews {
		if rv.RevieweeID == revieweeID {
			sum += int64(rv.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}

func (r memReviewRepo) FindWithFilter(_ *gorm.DB, filter repositories.ReviewFilter) ([]models.JobReview, int64, error) {
	out := r.filter(func(rv models.JobReview) bool {
		return filter.Rating == 0 || rv.Rating == filter.Rating
	})
	items, total := paginateSlice(out, filter.Pagination)
	return items, total, nil
}

func (r memReviewRepo) CountAll(_ *gorm.DB) (int64, error) {
	return int64(len(r.store.reviews)), nil
}

// ---------------- SOS ----------------

type memSOSRepo struct{ store *memStore }

func (r memSOSRepo) Create(_ *gorm.DB, sos *models.SOSRequest) error {
	sos.ID = r.store.id()
	r.store.sos[sos.ID] = *sos
	return nil
}

func (r memSOSRepo) FindByID(_ *gorm.DB, id uint64) (*models.SOSRequest, error) {
	s, ok := r.store.sos[id]
	if !ok {
		return nil, repositories.ErrSOSNotFound
	}
	return &s, nil
}

func (r memSOSRepo) FindByIDForUpdate(db *gorm.DB, id uint64) (*models.SOSRequest, error) {
	return r.FindByID(db, id)
}

func (r memSOSRepo) Save(_ *gorm.DB, sos *models.SOSRequest) error {
	r.store.sos[sos.ID] = *sos
	return nil
}

func (r memSOSRepo) Delete(_ *gorm.DB, id uint64) error {
	if _, ok := r.store.sos[id]; !ok {
		return repositories.ErrSOSNotFound
	}
	delete(r.store.sos, id)
	return nil
}

func (r memSOSRepo) list(keep func(s models.SOSRequest) bool) []models.SOSRequest {
	var out []models.SOSRequest
	for _, s := range r.store.sos {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memSOSRepo) FindWithFilter(_ *gorm.DB, filter repositories.SOSFilter) ([]models.SOSRequest, int64, error) {
	out := r.list(func(s models.SOSRequest) bool { return filter.Status == "" || s.Status == filter.Status })
	items, total := paginateSlice(out, filter.Pagination)
	return items, total, nil
}

func (r memSOSRepo) FindByRequester(_ *gorm.DB, requesterID uint64, page repositories.Pagination) ([]models.SOSRequest, int64, error) {
	items, total := paginateSlice(r.list(func(s models.SOSRequest) bool { return s.RequesterID == requesterID }), page)
	return items, total, nil
}

func (r memSOSRepo) FindActiveNear(_ *gorm.DB, _ float64, _ float64) ([]models.SOSRequest, error) {
	return r.list(func(s models.SOSRequest) bool { return s.Status == models.SOSStatusActive }), nil
}

func (r memSOSRepo) CountByStatus(_ *gorm.DB, status models.SOSStatus) (int64, error) {
	return int64(len(r.list(func(s models.SOSRequest) bool { return s.Status == status }))), nil
}

func (r memSOSRepo) CreateHelper(_ *gorm.DB, helper *models.SOSHelper) error {
	for _, h := range r.store.helpers {
		if h.SOSID == helper.SOSID && h.HelperID == helper.HelperID {
			return repositories.ErrSOSHelperAlreadyExists
		}
	}
	helper.ID = r.store.id()
	r.store.helpers[helper.ID] = *helper
	return nil
}

func (r memSOSRepo) FindHelper(_ *gorm.DB, sosID, helperID uint64) (*models.SOSHelper, error) {
	for _, h := range r.store.helpers {
		if h.SOSID == sosID && h.HelperID == helperID {
			h := h
			return &h, nil
		}
	}
	return nil, repositories.ErrSOSHelperNotFound
}

func (r memSOSRepo) FirstHelper(_ *gorm.DB, sosID uint64) (*models.SOSHelper, error) {
	var first *models.SOSHelper
	for _, h := range r.store.helpers {
		if h.SOSID != sosID {
			continue
		}
		h := h
		if first == nil || h.RespondedAt.Before(first.RespondedAt) ||
			(h.RespondedAt.Equal(first.RespondedAt) && h.ID < first.ID) {
			first = &h
		}
	}
	return first, nil
}

// ---------------- Moderation ----------------

type memModerationRepo struct{ store *memStore }

func (r memModerationRepo) CreateBan(_ *gorm.DB, ban *models.UserBan) error {
	ban.ID = r.store.id()
	r.store.bans[ban.ID] = *ban
	return nil
}

func (r memModerationRepo) LiftLatestBan(_ *gorm.DB, userID uint64, at time.Time) error {
	var latest *models.UserBan
	for _, b := range r.store.bans {
		if b.UserID == userID && b.LiftedAt == nil {
			b := b
			if latest == nil || b.ID > latest.ID {
				latest = &b
			}
		}
	}
	if latest == nil {
		return nil
	}
	latest.LiftedAt = &at
	r.store.bans[latest.ID] = *latest
	return nil
}

func (r memModerationRepo) FindRecentBans(_ *gorm.DB, limit int) ([]models.UserBan, error) {
	var out []models.UserBan
	for _, b := range r.store.bans {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memModerationRepo) CreateAction(_ *gorm.DB, action *models.AdminAction) error {
	action.ID = r.store.id()
	r.store.actions = append(r.store.actions, *action)
	return nil
}

func (r memModerationRepo) FindRecentActions(_ *gorm.DB, limit int) ([]models.AdminAction, error) {
	out := append([]models.AdminAction(nil), r.store.actions...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memModerationRepo) CreateComplaint(_ *gorm.DB, c *models.BanComplaint) error {
	c.ID = r.store.id()
	r.store.complaints[c.ID] = *c
	return nil
}

func (r memModerationRepo) FindComplaintByIDForUpdate(_ *gorm.DB, id uint64) (*models.BanComplaint, error) {
	c, ok := r.store.complaints[id]
	if !ok {
		return nil, repositories.ErrBanComplaintNotFound
	}
	return &c, nil
}

func (r memModerationRepo) SaveComplaint(_ *gorm.DB, c *models.BanComplaint) error {
	r.store.complaints[c.ID] = *c
	return nil
}

func (r memModerationRepo) FindComplaints(_ *gorm.DB, filter repositories.ComplaintFilter) ([]models.BanComplaint, int64, error) {
	var out []models.BanComplaint
	for _, c := range r.store.complaints {
		if filter.Status == "" || c.Status == filter.Status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	items, total := paginateSlice(out, filter.Pagination)
	return items, total, nil
}

// ---------------- Notifications ----------------

type memNotificationRepo struct {
	store *memStore
	err   error
}

func (r *memNotificationRepo) Create(db *gorm.DB, n *models.Notification) error {
	return r.CreateBulk(db, []*models.Notification{n})
}

func (r *memNotificationRepo) CreateBulk(_ *gorm.DB, rows []*models.Notification) error {
	if r.err != nil {
		return r.err
	}
	for _, n := range rows {
		n.ID = r.store.id()
		r.store.notifications[n.ID] = *n
	}
	return nil
}

func (r *memNotificationRepo) FindByUser(_ *gorm.DB, userID uint64, criteria repositories.NotificationCriteria) ([]models.Notification, int64, error) {
	var out []models.Notification
	for _, n := range r.store.notifications {
		if n.UserID == userID && (!criteria.UnreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	items, total := paginateSlice(out, criteria.Pagination)
	return items, total, nil
}

func (r *memNotificationRepo) CountUnread(_ *gorm.DB, userID uint64) (int64, error) {
	var n int64
	for _, row := range r.store.notifications {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *memNotificationRepo) MarkRead(_ *gorm.DB, userID uint64, ids []uint64, at time.Time) (int64, error) {
	var updated int64
	for _, id := range ids {
		n, ok := r.store.notifications[id]
		if !ok || n.UserID != userID || n.IsRead {
			continue
		}
		n.IsRead = true
		n.ReadAt = &at
		r.store.notifications[id] = n
		updated++
	}
	return updated, nil
}

func (r *memNotificationRepo) MarkAllRead(db *gorm.DB, userID uint64, at time.Time) (int64, error) {
	var ids []uint64
	for id, n := range r.store.notifications {
		if n.UserID == userID {
			ids = append(ids, id)
		}
	}
	return r.MarkRead(db, userID, ids, at)
}

func (r *memNotificationRepo) Delete(_ *gorm.DB, userID, id uint64) error {
	n, ok := r.store.notifications[id]
	if !ok || n.UserID != userID {
		return repositories.ErrNotificationNotFound
	}
	delete(r.store.notifications, id)
	return nil
}

// ---------------- Sessions ----------------

type memSessionRepo struct{ store *memStore }

func (r memSessionRepo) Create(_ *gorm.DB, s *models.UserSession) error {
	s.ID = r.store.id()
	r.store.sessions[s.TokenID] = *s
	return nil
}

func (r memSessionRepo) FindActive(_ *gorm.DB, tokenID string, now time.Time) (*models.UserSession, error) {
	s, ok := r.store.sessions[tokenID]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, repositories.ErrSessionNotFound
	}
	return &s, nil
}

func (r memSessionRepo) DeleteByTokenID(_ *gorm.DB, tokenID string) error {
	delete(r.store.sessions, tokenID)
	return nil
}

func (r memSessionRepo) DeleteAllForUser(_ *gorm.DB, userID uint64) (int64, error) {
	var n int64
	for token, s := range r.store.sessions {
		if s.UserID == userID {
			delete(r.store.sessions, token)
			n++
		}
	}
	return n, nil
}

// ---------------- Addresses ----------------

type memAddressRepo struct{ store *memStore }

func (r memAddressRepo) Create(_ *gorm.DB, a *models.Address) error {
	a.ID = r.store.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	r.store.addresses[a.ID] = *a
	return nil
}

func (r memAddressRepo) FindByID(_ *gorm.DB, id uint64) (*models.Address, error) {
	a, ok := r.store.addresses[id]
	if !ok {
		return nil, repositories.ErrAddressNotFound
	}
	return &a, nil
}

func (r memAddressRepo) FindByUser(_ *gorm.DB, userID uint64) ([]models.Address, error) {
	var out []models.Address
	for _, a := range r.store.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return addressPreferred(out[i], out[j]) })
	return out, nil
}

func (r memAddressRepo) Update(_ *gorm.DB, a *models.Address) error {
	if _, ok := r.store.addresses[a.ID]; !ok {
		return repositories.ErrAddressNotFound
	}
	r.store.addresses[a.ID] = *a
	return nil
}

func (r memAddressRepo) Delete(_ *gorm.DB, id uint64) error {
	if _, ok := r.store.addresses[id]; !ok {
		return repositories.ErrAddressNotFound
	}
	delete(r.store.addresses, id)
	return nil
}

func (r memAddressRepo) UnsetDefaults(_ *gorm.DB, userID uint64, exceptID uint64) error {
	for id, a := range r.store.addresses {
		if a.UserID == userID && id != exceptID && a.IsDefault {
			a.IsDefault = false
			r.store.addresses[id] = a
		}
	}
	return nil
}

func (r memAddressRepo) SetDefault(_ *gorm.DB, id uint64) error {
	a, ok := r.store.addresses[id]
	if !ok {
		return repositories.ErrAddressNotFound
	}
	a.IsDefault = true
	r.store.addresses[id] = a
	return nil
}

func (r memAddressRepo) FindLocatedByUsers(_ *gorm.DB, userIDs []uint64) ([]models.Address, error) {
	wanted := map[uint64]bool{}
	for _, id := range userIDs {
		wanted[id] = true
	}
	var out []models.Address
	for _, a := range r.store.addresses {
		if wanted[a.UserID] && a.HasUsableLocation() {
			out = append(out, a)
		}
	}
	return out, nil
}

// ---------------- Pusher ----------------

type recordingPusher struct {
	sent map[uint64]int
}

func (p *recordingPusher) SendToUser(userID uint64, _ interface{}) bool {
	if p.sent == nil {
		p.sent = map[uint64]int{}
	}
	p.sent[userID]++
	return true
}

// ---------------- Wiring ----------------

var errLedgerDown = errors.New("ledger unavailable")

type testEnv struct {
	store    *memStore
	repos    Repositories
	notifier NotificationService
	pusher   *recordingPusher
	now      time.Time
}

func newTestEnv() *testEnv {
	store := newMemStore()
	repos := Repositories{
		User:         memUserRepo{store},
		Address:      memAddressRepo{store},
		Job:          memJobRepo{store},
		Application:  memApplicationRepo{store},
		Review:       memReviewRepo{store},
		SOS:          memSOSRepo{store},
		Moderation:   memModerationRepo{store},
		Notification: &memNotificationRepo{store: store},
		Session:      memSessionRepo{store},
		Ledger:       memLedgerRepo{store},
		Transactor:   memTransactor{store},
	}
	pusher := &recordingPusher{}
	return &testEnv{
		store:    store,
		repos:    repos,
		notifier: NewNotificationService(repos.Notification, repos.User, pusher),
		pusher:   pusher,
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (e *testEnv) clock() time.Time {
	return e.now
}

func (e *testEnv) points() PointsService {
	return NewPointsService(e.repos.Ledger, e.repos.User, e.repos.Transactor)
}

func (e *testEnv) jobService() *JobServiceImpl {
	svc := NewJobService(e.repos.Job, e.repos.Application, e.repos.User, e.repos.Transactor, e.points(), e.notifier).(*JobServiceImpl)
	svc.now = e.clock
	return svc
}

func (e *testEnv) sosService() *SOSServiceImpl {
	svc := NewSOSService(e.repos.SOS, e.repos.User, e.repos.Transactor, e.points(), e.notifier, SOSOptions{}).(*SOSServiceImpl)
	svc.now = e.clock
	return svc
}

func (e *testEnv) moderationService() *ModerationServiceImpl {
	svc := NewModerationService(
		e.repos.User, e.repos.Moderation, e.repos.Session, e.repos.Job, e.repos.Application, e.repos.Review,
		e.repos.Transactor, NewRatingService(e.repos.Review, e.repos.User), e.notifier,
	).(*ModerationServiceImpl)
	svc.now = e.clock
	return svc
}

func ptr[T any](v T) *T {
	return &v
}
