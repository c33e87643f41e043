package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-appointment-auth/config"
	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
	repo "github.com/oksasatya/go-appointment-auth/internal/domain/repository"
	"github.com/oksasatya/go-appointment-auth/pkg/helpers"
	"github.com/oksasatya/go-appointment-auth/pkg/mailer"
	mailtpl "github.com/oksasatya/go-appointment-auth/pkg/mailer/templates"
)

var (
	ErrStorageNotConfigured = errors.New("gcs not configured")
)

// JobPublisher queues e-mail jobs; *helpers.RabbitPublisher implements it.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// ProfileService fronts the profile repository. Reads go through a Redis
// cache, writes re-index the profile in Elasticsearch, and the first
// provisioning of a profile queues a welcome e-mail.
type ProfileService struct {
	Repo      repo.ProfileRepository
	Cfg       *config.Config
	GCS       *storage.Client
	GCSBucket string
	Redis     *redis.Client
	CacheTTL  time.Duration
	Logger    *logrus.Logger
	ES        *elasticsearch.Client
	ESIndex   string
	Jobs      JobPublisher
}

func NewProfileService(r repo.ProfileRepository, cfg *config.Config, gcs *storage.Client, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, jobs JobPublisher) *ProfileService {
	s := &ProfileService{
		Repo:     r,
		Cfg:      cfg,
		GCS:      gcs,
		Redis:    rdb,
		Logger:   logger,
		ES:       es,
		Jobs:     jobs,
		CacheTTL: 5 * time.Minute,
	}
	if cfg != nil {
		s.GCSBucket = cfg.GCSBucket
		s.ESIndex = cfg.ESUsersIndex
		if cfg.ProfileCacheTTL > 0 {
			s.CacheTTL = cfg.ProfileCacheTTL
		}
	}
	return s
}

func profileCacheKey(uid string) string {
	return "profile:" + uid
}

// Read returns the profile for uid, or repository.ErrProfileNotFound.
func (s *ProfileService) Read(ctx context.Context, uid string) (*entity.Profile, error) {
	if s.Redis != nil {
		var cached entity.Profile
		ok, err := helpers.RedisGetJSON(ctx, s.Redis, profileCacheKey(uid), &cached)
		if err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("uid", uid).Warn("profile cache read failed")
		}
		if ok {
			return &cached, nil
		}
	}

	p, err := s.Repo.Read(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, p)
	return p, nil
}

// Refetch drops the cached copy and reads uid from the repository.
func (s *ProfileService) Refetch(ctx context.Context, uid string) (*entity.Profile, error) {
	s.invalidate(ctx, uid)
	p, err := s.Repo.Read(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, p)
	return p, nil
}

// Provision creates the default profile for id if none exists. On creation the
// profile is indexed and a welcome e-mail is queued; failures of those side
// effects are logged only.
func (s *ProfileService) Provision(ctx context.Context, id entity.Identity) (bool, error) {
	created, err := s.Repo.Provision(ctx, id)
	if err != nil || !created {
		return created, err
	}

	p := entity.NewProfileFromIdentity(id)
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_ = s.indexProfile(ctx, p)
	s.enqueueWelcome(ctx, p)
	return true, nil
}

type UpdateProfileInput struct {
	DisplayName string
	Phone       string
	DateOfBirth string
	Address     string
}

// UpdateProfile applies the non-empty fields of in.
func (s *ProfileService) UpdateProfile(ctx context.Context, uid string, in UpdateProfileInput) (*entity.Profile, error) {
	p, err := s.Repo.Read(ctx, uid)
	if err != nil {
		return nil, err
	}

	changes := map[string]string{}
	set := func(field string, dst *string, v string) {
		v = strings.TrimSpace(v)
		if v != "" && v != *dst {
			*dst = v
			changes[field] = v
		}
	}
	set("display name", &p.DisplayName, in.DisplayName)
	set("phone", &p.Phone, in.Phone)
	set("date of birth", &p.DateOfBirth, in.DateOfBirth)
	set("address", &p.Address, in.Address)

	if len(changes) == 0 {
		return p, nil
	}
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()

	s.invalidate(ctx, uid)
	_ = s.indexProfile(ctx, p)
	s.enqueue(ctx, p.Email, mailtpl.ProfileUpdated,
		mailtpl.NewProfileUpdatedData(s.Cfg, p.DisplayName, p.Email, changes, mailtpl.WithTime(p.UpdatedAt)))
	return p, nil
}

// UploadAvatar stores the image in GCS and points the profile photo at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, uid string, r io.Reader, filename, contentType string) (string, error) {
	p, err := s.Repo.Read(ctx, uid)
	if err != nil {
		return "", err
	}
	url, err := s.uploadImageToGCS(ctx, uid, r, filename, contentType)
	if err != nil {
		return "", err
	}
	p.PhotoURL = url
	if err := s.Repo.Update(ctx, p); err != nil {
		return "", err
	}
	s.invalidate(ctx, uid)
	_ = s.indexProfile(ctx, p)
	return url, nil
}

func (s *ProfileService) uploadImageToGCS(ctx context.Context, uid string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", ErrStorageNotConfigured
	}
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, helpers.AvatarObjectPath(uid, filename), contentType, r)
}

func (s *ProfileService) cache(ctx context.Context, p *entity.Profile) {
	if s.Redis == nil || p == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, profileCacheKey(p.UID), p, s.CacheTTL); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("uid", p.UID).Warn("profile cache write failed")
	}
}

func (s *ProfileService) invalidate(ctx context.Context, uid string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, profileCacheKey(uid)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("uid", uid).Warn("profile cache invalidate failed")
	}
}

func (s *ProfileService) enqueueWelcome(ctx context.Context, p *entity.Profile) {
	s.enqueue(ctx, p.Email, mailtpl.Welcome,
		mailtpl.NewWelcomeData(s.Cfg, p.DisplayName, p.Email, mailtpl.WithRole(p.Role), mailtpl.WithTime(p.CreatedAt)))
}

func (s *ProfileService) enqueue(ctx context.Context, to, template string, data map[string]any) {
	if s.Jobs == nil || to == "" || (s.Cfg != nil && !s.Cfg.MailSendEnabled) {
		return
	}
	job := mailer.EmailJob{To: to, Template: template, Data: data}
	if err := s.Jobs.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"to": to, "template": template}).Warn("enqueue email failed")
	}
}

func (s *ProfileService) indexProfile(ctx context.Context, p *entity.Profile) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	doc := map[string]any{
		"uid":          p.UID,
		"email":        p.Email,
		"display_name": p.DisplayName,
		"photo_url":    p.PhotoURL,
		"phone":        p.Phone,
		"role":         p.Role,
		"created_at":   p.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   p.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: p.UID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("uid", p.UID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("uid", p.UID).Warn("es index response error")
	}
	return nil
}

// SearchProfiles performs a simple multi_match search on email and display name.
func (s *ProfileService) SearchProfiles(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "display_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, errors.New("search failed: " + res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
