package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"school/internal/domain/model"
	"school/internal/repository"
)

var (
	// メールまたはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

const minPasswordLength = 8

// 会員登録の入力
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ログイン・登録・マジックリンク共通の出力
type AuthOutput struct {
	Person model.Person
	Tokens IssuedTokens
}

// AuthUsecaseはTokenUsecaseの上に乗る認証フロー（登録/ログイン/ログアウト/マジックリンク）
type AuthUsecase struct {
	personRepo repository.PersonRepository
	tokens     *TokenUsecase
	notifier   NotificationSink
	mailer     EmailSink
	idGen      IDGenerator
	clock      Clock
	logger     zerolog.Logger
}

func NewAuthUsecase(
	personRepo repository.PersonRepository,
	tokens *TokenUsecase,
	notifier NotificationSink,
	mailer EmailSink,
	idGen IDGenerator,
	clock Clock,
	logger zerolog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		personRepo: personRepo,
		tokens:     tokens,
		notifier:   notifier,
		mailer:     mailer,
		idGen:      idGen,
		clock:      clock,
		logger:     logger,
	}
}

// Registerは会員登録してそのままトークンを発行する
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (AuthOutput, error) {
	var out AuthOutput

	if !isValidEmailFormat(in.Email) {
		return out, ErrInvalidEmailFormat
	}
	if len(in.Password) < minPasswordLength {
		return out, ErrPasswordTooShort
	}

	// email重複チェック
	existing, err := u.personRepo.FindByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return out, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrPersonNotFound) {
		return out, storeErr(err)
	}

	//パスワードは必ずハッシュ化して保存
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return out, err
	}

	person := &model.Person{
		ID:        u.idGen.NewID(),
		Email:     in.Email,
		Password:  string(hashed),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      model.RoleUser, // 初期はUSER
	}

	if err := u.personRepo.Create(ctx, person); err != nil {
		return out, storeErr(err)
	}

	tokens, err := u.tokens.Issue(ctx, person)
	if err != nil {
		return out, err
	}

	//通知・メールは巻き戻さない
	if err := u.mailer.SendWelcome(context.Background(), person.Email, person.FullName()); err != nil {
		u.logger.Warn().Err(err).Msg("welcome email failed")
	}
	if err := u.notifier.Notify(ctx, person.ID,
		"Ласкаво просимо!",
		"Вітаємо! Ми раді, що ви з нами. Перегляньте доступні курси.",
		model.NotificationTypeNewUserRegistration); err != nil {
		u.logger.Warn().Err(err).Msg("welcome notification failed")
	}

	out.Person = safePerson(person)
	out.Tokens = tokens
	return out, nil
}

// Loginはパスワード認証してトークンを発行する
func (u *AuthUsecase) Login(ctx context.Context, email string, password string) (AuthOutput, error) {
	var out AuthOutput

	person, err := u.personRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, storeErr(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(person.Password), []byte(password)); err != nil {
		return out, ErrInvalidCredentials
	}

	tokens, err := u.tokens.Issue(ctx, person)
	if err != nil {
		return out, err
	}

	//最終ログイン時刻更新。失敗してもログインは通す
	now := u.clock.Now()
	person.LastLoginAt = &now
	if err := u.personRepo.Update(ctx, person); err != nil {
		u.logger.Warn().Err(err).Str("person_id", person.ID).Msg("last login update failed")
	}

	out.Person = safePerson(person)
	out.Tokens = tokens
	return out, nil
}

// MagicLoginはメールで届いたワンショットトークンでログインする
func (u *AuthUsecase) MagicLogin(ctx context.Context, rawToken string) (AuthOutput, error) {
	var out AuthOutput

	email, err := u.tokens.RedeemMagicToken(rawToken)
	if err != nil {
		return out, ErrInvalidToken
	}

	person, err := u.personRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return out, ErrInvalidToken
		}
		return out, storeErr(err)
	}

	tokens, err := u.tokens.Issue(ctx, person)
	if err != nil {
		return out, err
	}

	out.Person = safePerson(person)
	out.Tokens = tokens
	return out, nil
}

// RequestMagicLinkは登録済みメール宛にワンショットログインリンクを送る。
// 未登録でもエラーは返さない（アドレスの存在を外に漏らさない）
func (u *AuthUsecase) RequestMagicLink(ctx context.Context, email string, linkBaseURL string) error {
	person, err := u.personRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return nil
		}
		return storeErr(err)
	}

	token, err := u.tokens.IssueMagicToken(person.Email)
	if err != nil {
		return err
	}

	link := linkBaseURL + "?token=" + token
	if err := u.mailer.SendMagicLink(context.Background(), person.Email, link); err != nil {
		u.logger.Warn().Err(err).Msg("magic link email failed")
	}

	return nil
}

// Logoutは提示されたリフレッシュトークンの所有者のセッションを全部落とす。
// デモロールならトークンを残さない（デモアカウント掃除の一部）
func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) error {
	if refreshTokenPlain == "" {
		return nil
	}

	personID, err := u.tokens.RevokeSession(ctx, refreshTokenPlain)
	if err != nil {
		// 既に無効なら黙って成功扱い（冪等なログアウト）
		if errors.Is(err, ErrTokenNotFound) {
			return nil
		}
		return err
	}

	//デモロールはセッション以外の痕跡も残さない方針。ここではログだけ残す
	if person, err := u.personRepo.FindByID(ctx, personID); err == nil && person.Role.IsSandbox() {
		u.logger.Info().Str("person_id", personID).Msg("sandbox account logged out, tokens purged")
	}

	return nil
}

func safePerson(p *model.Person) model.Person {
	// 返すときはハッシュも外に出さない
	safe := *p
	safe.Password = ""
	return safe
}

func isValidEmailFormat(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return false
	}
	_, err := mail.ParseAddress(trimmed)
	return err == nil
}
