package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/admin-service/internal/app/admin/repository"
	"admindash/admin-service/internal/app/admin/util"

	"github.com/google/uuid"
)

const (
	maxRegionalNames      = 5
	maxRegionalNameLength = 200

	unknownAuditValue = "unknown"
)

// LocaleService управляет локалями и их секретами BazaarVoice
// Секреты попадают в хранилище только зашифрованными
type LocaleService struct {
	repo     repository.LocaleRepository
	cipher   util.Cipher
	recorder util.AuditRecorder
}

// NewLocaleService создает сервис локалей
func NewLocaleService(repo repository.LocaleRepository, cipher util.Cipher, recorder util.AuditRecorder) *LocaleService {
	return &LocaleService{
		repo:     repo,
		cipher:   cipher,
		recorder: recorder,
	}
}

// List возвращает страницу локалей без секретов
func (s *LocaleService) List(ctx context.Context, query entity.ListQuery) (*entity.LocalePage, error) {
	cursor, err := parseCursor(query.Cursor)
	if err != nil {
		return nil, err
	}

	limit := query.PageLimit()
	locales, err := s.repo.List(ctx, strings.TrimSpace(query.Query), cursor, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}

	locales, next := paginate(locales, limit, func(l entity.Locale) uuid.UUID { return l.ID })

	views := make([]entity.LocaleView, 0, len(locales))
	for i := range locales {
		views = append(views, toLocaleView(&locales[i]))
	}

	return &entity.LocalePage{Locales: views, NextCursor: next}, nil
}

// Create создает локаль от имени администратора
func (s *LocaleService) Create(ctx context.Context, actor entity.Actor, req *entity.CreateLocaleRequest) (*entity.LocaleView, error) {
	code := strings.TrimSpace(req.Code)
	displayName := strings.TrimSpace(req.DisplayName)
	if code == "" || displayName == "" {
		return nil, ErrInvalidBody
	}

	if err := s.ensureCodeAvailable(ctx, code, uuid.Nil); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	locale := &entity.Locale{
		ID:                uuid.New(),
		Code:              code,
		DisplayName:       displayName,
		RegionalNames:     sanitizeRegionalNames(req.RegionalNames),
		Description:       entity.OptionalString(req.Description),
		BVClientID:        entity.OptionalString(req.BVClientID),
		BazaarVoiceClient: entity.OptionalString(req.BazaarVoiceClient),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if id, err := uuid.Parse(actor.UserID); err == nil {
		locale.CreatedBy = &id
	}

	secrets := []struct {
		plaintext *string
		target    **string
	}{
		{req.BazaarVoiceAPIKey, &locale.BazaarVoiceAPIKey},
		{req.BVResponseAPIKey, &locale.BVResponseAPIKey},
		{req.BVClientSecret, &locale.BVClientSecret},
	}
	for _, secret := range secrets {
		envelope, err := s.cipher.Encrypt(secret.plaintext)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt locale secret: %w", err)
		}
		*secret.target = envelope
	}

	if err := s.repo.Create(ctx, locale); err != nil {
		return nil, mapLocaleError(err, "create")
	}

	view := toLocaleView(locale)
	return &view, nil
}

// Update меняет переданные поля; секрет перешифровывается только если он передан
func (s *LocaleService) Update(ctx context.Context, id uuid.UUID, req *entity.UpdateLocaleRequest) (*entity.LocaleView, error) {
	changes := make(map[string]interface{})

	if req.Code.Set {
		code := req.Code.Trimmed()
		if code == "" {
			return nil, ErrInvalidBody
		}
		if err := s.ensureCodeAvailable(ctx, code, id); err != nil {
			return nil, err
		}
		changes["code"] = code
	}

	if req.DisplayName.Set {
		displayName := req.DisplayName.Trimmed()
		if displayName == "" {
			return nil, ErrInvalidBody
		}
		changes["display_name"] = displayName
	}

	if req.RegionalNames != nil {
		changes["regional_names"] = sanitizeRegionalNames(*req.RegionalNames)
	}

	plain := map[string]entity.NullString{
		"description":         req.Description,
		"bv_client_id":        req.BVClientID,
		"bazaar_voice_client": req.BazaarVoiceClient,
	}
	for column, field := range plain {
		if field.Set {
			changes[column] = field.TrimmedPtr()
		}
	}

	secrets := map[string]entity.NullString{
		"bazaar_voice_api_key": req.BazaarVoiceAPIKey,
		"bv_response_api_key":  req.BVResponseAPIKey,
		"bv_client_secret":     req.BVClientSecret,
	}
	for column, field := range secrets {
		if !field.Set {
			continue
		}
		envelope, err := s.cipher.Encrypt(field.Ptr())
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt locale secret: %w", err)
		}
		changes[column] = envelope
	}

	if len(changes) == 0 {
		return nil, ErrNoChanges
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, mapLocaleError(err, "update")
	}

	locale, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapLocaleError(err, "get")
	}

	view := toLocaleView(locale)
	return &view, nil
}

// Delete удаляет локаль; зависимых записей нет
func (s *LocaleService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapLocaleError(err, "delete")
	}
	return nil
}

// RevealSecrets расшифровывает секреты локали и фиксирует доступ в аудите
// Поврежденный конверт отдается как null, запрос при этом не падает
func (s *LocaleService) RevealSecrets(ctx context.Context, id uuid.UUID, actor entity.Actor) (*entity.RevealSecretsResponse, error) {
	locale, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapLocaleError(err, "get")
	}

	secrets := entity.LocaleSecrets{
		ID:                locale.ID.String(),
		Code:              locale.Code,
		DisplayName:       locale.DisplayName,
		BazaarVoiceAPIKey: s.cipher.Decrypt(locale.BazaarVoiceAPIKey),
		BVResponseAPIKey:  s.cipher.Decrypt(locale.BVResponseAPIKey),
		BVClientSecret:    s.cipher.Decrypt(locale.BVClientSecret),
		BVClientID:        locale.BVClientID,
		BazaarVoiceClient: locale.BazaarVoiceClient,
	}

	now := time.Now().UTC()
	s.recorder.Record(ctx, entity.AuditRecord{
		Action:     entity.ActionDecryptLocaleSecrets,
		AdminUser:  orUnknown(actor.Email),
		AdminEmail: actor.Email,
		LocaleID:   locale.ID.String(),
		LocaleCode: locale.Code,
		UserAgent:  orUnknown(actor.UserAgent),
		IP:         orUnknown(actor.IP),
		Timestamp:  now,
	})

	return &entity.RevealSecretsResponse{
		Secrets: secrets,
		AuditID: formatTime(now) + "-" + locale.ID.String(),
	}, nil
}

// ensureCodeAvailable отклоняет код, занятый другой локалью (без учета регистра)
func (s *LocaleService) ensureCodeAvailable(ctx context.Context, code string, self uuid.UUID) error {
	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLocaleNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check locale code: %w", err)
	}
	if existing.ID != self {
		return ErrLocaleCodeTaken
	}
	return nil
}

// sanitizeRegionalNames обрезает названия, отбрасывает пустые и оставляет не больше пяти
func sanitizeRegionalNames(names []string) entity.StringList {
	result := make(entity.StringList, 0, maxRegionalNames)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > maxRegionalNameLength {
			name = string([]rune(name)[:maxRegionalNameLength])
		}
		result = append(result, name)
		if len(result) == maxRegionalNames {
			break
		}
	}
	return result
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return unknownAuditValue
	}
	return value
}

func mapLocaleError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrLocaleNotFound):
		return ErrLocaleNotFound
	case errors.Is(err, repository.ErrLocaleCodeTaken):
		return ErrLocaleCodeTaken
	}
	return fmt.Errorf("failed to %s locale: %w", op, err)
}
