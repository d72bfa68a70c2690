package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"school/internal/domain/model"
	"school/internal/repository"
)

var (
	// 提示されたリフレッシュトークンが存在しない（rotate済み・logout済み含む）
	ErrTokenNotFound = errors.New("refresh token not found")
	// リフレッシュトークンの期限切れ
	ErrTokenExpired = errors.New("refresh token expired")
	// アクセストークン/マジックトークンの署名・期限・claimが不正
	ErrInvalidToken = errors.New("invalid token")
)

const magicPurposeClaim = "magic"

// 発行結果。RefreshTokenPlainはここ以外に平文で存在しない
type IssuedTokens struct {
	AccessToken       string
	AccessExpiresAt   time.Time
	RefreshTokenPlain string
	RefreshExpiresAt  time.Time
}

// TokenUsecaseはアクセストークンの発行/検証とリフレッシュトークンのローテーションを行う
type TokenUsecase struct {
	rtRepo      repository.RefreshTokenRepository
	personRepo  repository.PersonRepository
	txm         repository.TransactionManager
	idGen       IDGenerator
	clock       Clock
	jwtSecret   []byte
	magicSecret []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	magicTTL    time.Duration
}

func NewTokenUsecase(
	rtRepo repository.RefreshTokenRepository,
	personRepo repository.PersonRepository,
	txm repository.TransactionManager,
	idGen IDGenerator,
	clock Clock,
	jwtSecret string,
	magicSecret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	magicTTL time.Duration,
) *TokenUsecase {
	return &TokenUsecase{
		rtRepo:      rtRepo,
		personRepo:  personRepo,
		txm:         txm,
		idGen:       idGen,
		clock:       clock,
		jwtSecret:   []byte(jwtSecret),
		magicSecret: []byte(magicSecret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		magicTTL:    magicTTL,
	}
}

// Issueは新しいリフレッシュトークンと短命アクセストークンを発行する。
// ログイン・登録・マジックリンクの成功時に呼ばれる
func (u *TokenUsecase) Issue(ctx context.Context, person *model.Person) (IssuedTokens, error) {
	return u.issueWith(ctx, person, u.rtRepo)
}

func (u *TokenUsecase) issueWith(ctx context.Context, person *model.Person, rtRepo repository.RefreshTokenRepository) (IssuedTokens, error) {
	var out IssuedTokens

	now := u.clock.Now()

	accessToken, accessExp, err := u.signAccessToken(person, now)
	if err != nil {
		return out, err
	}

	//平文はクライアントへ、DBにはハッシュだけ
	plain, err := generateSecureToken(32)
	if err != nil {
		return out, err
	}

	refresh := &model.RefreshToken{
		ID:        u.idGen.NewID(),
		PersonID:  person.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(u.refreshTTL),
	}

	if err := rtRepo.Create(ctx, refresh); err != nil {
		return out, storeErr(err)
	}

	out.AccessToken = accessToken
	out.AccessExpiresAt = accessExp
	out.RefreshTokenPlain = plain
	out.RefreshExpiresAt = refresh.ExpiresAt
	return out, nil
}

// Rotateは旧トークンを検証して破棄し、同じ所有者に新しい組を発行する。
// 読み直し→削除→作成を1トランザクションで行うので、同じ値で同時に2回呼ばれても
// 成功するのは片方だけ（負けた側は削除0件でErrTokenNotFound）。
// ErrTokenNotFound/ErrTokenExpiredはセッション終了のシグナルであり、リトライ対象ではない
func (u *TokenUsecase) Rotate(ctx context.Context, oldTokenPlain string) (IssuedTokens, error) {
	var out IssuedTokens

	err := u.txm.WithinTx(ctx, func(r repository.TxRepos) error {
		rt, err := r.RefreshTokens().FindByTokenHash(ctx, hashToken(oldTokenPlain))
		if err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return ErrTokenNotFound
			}
			return storeErr(err)
		}

		//期限切れは行を消した上で失敗させる
		if u.clock.Now().After(rt.ExpiresAt) {
			if err := r.RefreshTokens().DeleteByID(ctx, rt.ID); err != nil &&
				!errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return storeErr(err)
			}
			return ErrTokenExpired
		}

		//旧トークンを破棄。既に消えていたら競合に負けたということ
		if err := r.RefreshTokens().DeleteByID(ctx, rt.ID); err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return ErrTokenNotFound
			}
			return storeErr(err)
		}

		person, err := r.Persons().FindByID(ctx, rt.PersonID)
		if err != nil {
			if errors.Is(err, repository.ErrPersonNotFound) {
				return ErrTokenNotFound
			}
			return storeErr(err)
		}

		out, err = u.issueWith(ctx, person, r.RefreshTokens())
		return err
	})
	if err != nil {
		return IssuedTokens{}, err
	}

	return out, nil
}

// RevokeSessionは提示されたリフレッシュトークンから所有者を特定し、
// その所有者のトークンを全て消す（ログアウト）。所有者IDを返す
func (u *TokenUsecase) RevokeSession(ctx context.Context, tokenPlain string) (string, error) {
	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(tokenPlain))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return "", ErrTokenNotFound
		}
		return "", storeErr(err)
	}

	if err := u.RevokeAll(ctx, rt.PersonID); err != nil {
		return "", err
	}

	return rt.PersonID, nil
}

// RevokeAllは所有者のリフレッシュトークンを全て無効化する（ログアウト、デモデータ掃除）
func (u *TokenUsecase) RevokeAll(ctx context.Context, personID string) error {
	if err := u.rtRepo.DeleteAllByPersonID(ctx, personID); err != nil {
		return storeErr(err)
	}
	return nil
}

// PurgeExpiredは期限の切れたリフレッシュトークン行を掃除する。
// rotate時にも個別に消しているので、これは溜まった残りを拾う定期処理
func (u *TokenUsecase) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := u.rtRepo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

// VerifyAccessTokenは署名と期限だけを見る。DBは引かない
func (u *TokenUsecase) VerifyAccessToken(raw string) (Identity, error) {
	claims, err := parseHS256(raw, u.jwtSecret)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	roleStr, _ := claims["role"].(string)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}

	role, err := model.ParseRole(roleStr)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{PersonID: sub, Role: role}, nil
}

// IssueMagicTokenはパスワード無しログイン用のワンショットトークンを作る。
// 別鍵＋purposeクレームで通常のアクセストークンと混ざらないようにする。
// 保存はしない（短命なのでTTLで使い捨てになる）
func (u *TokenUsecase) IssueMagicToken(email string) (string, error) {
	now := u.clock.Now()

	claims := jwt.MapClaims{
		"sub":     email,
		"purpose": magicPurposeClaim,
		"iat":     now.Unix(),
		"exp":     now.Add(u.magicTTL).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(u.magicSecret)
}

// RedeemMagicTokenは検証に通ればメールアドレスを返す
func (u *TokenUsecase) RedeemMagicToken(raw string) (string, error) {
	claims, err := parseHS256(raw, u.magicSecret)
	if err != nil {
		return "", ErrInvalidToken
	}

	if purpose, _ := claims["purpose"].(string); purpose != magicPurposeClaim {
		return "", ErrInvalidToken
	}

	email, _ := claims["sub"].(string)
	if email == "" {
		return "", ErrInvalidToken
	}

	return email, nil
}

func (u *TokenUsecase) signAccessToken(person *model.Person, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(u.accessTTL)

	claims := jwt.MapClaims{
		"sub":  person.ID,
		"role": string(person.Role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(u.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func parseHS256(raw string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// リフレッシュトークンの平文生成（OSの安全な乱数、128bit以上）
func generateSecureToken(bytesLen int) (string, error) {
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
