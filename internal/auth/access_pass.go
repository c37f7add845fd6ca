package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	KindAccess  = "access"
	KindTeacher = "teacher"
)

// PassClaims 是访问 cookie 与 Teacher Mode cookie 共用的 JWT 字段。
type PassClaims struct {
	Kind    string `json:"kind"`
	Paid    bool   `json:"paid,omitempty"`
	Profile string `json:"profile,omitempty"`
	jwt.RegisteredClaims
}

// AccessPassService 负责签发与校验 HS256 令牌。
type AccessPassService struct {
	secret     []byte
	passTTL    time.Duration
	teacherTTL time.Duration
	now        func() time.Time
}

// NewAccessPassService 构造服务实例。secret 至少 32 字节。
func NewAccessPassService(secret []byte, passTTL, teacherTTL time.Duration) (*AccessPassService, error) {
	if len(secret) < 32 {
		return nil, errors.New("access signing secret must be at least 32 bytes")
	}
	if passTTL <= 0 || teacherTTL <= 0 {
		return nil, errors.New("access ttl must be positive")
	}
	return &AccessPassService{
		secret:     secret,
		passTTL:    passTTL,
		teacherTTL: teacherTTL,
		now:        time.Now,
	}, nil
}

// IssueAccessPass 签发 {paid:true, exp} 令牌，有效期从此刻起算。
func (s *AccessPassService) IssueAccessPass(sessionID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.passTTL)
	claims := PassClaims{
		Kind: KindAccess,
		Paid: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := s.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccessPass 校验签名、过期时间与 paid 标志。
func (s *AccessPassService) ValidateAccessPass(token string) (*PassClaims, error) {
	claims, err := s.parse(token, KindAccess)
	if err != nil {
		return nil, err
	}
	if !claims.Paid {
		return nil, errors.New("access pass is not paid")
	}
	return claims, nil
}

// IssueTeacherSession 签发绑定浏览器档案的 Teacher Mode 令牌。
func (s *AccessPassService) IssueTeacherSession(profile string) (string, error) {
	now := s.now()
	return s.sign(PassClaims{
		Kind:    KindTeacher,
		Profile: profile,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.teacherTTL)),
		},
	})
}

// ValidateTeacherSession 校验令牌且档案一致。
func (s *AccessPassService) ValidateTeacherSession(token, profile string) error {
	claims, err := s.parse(token, KindTeacher)
	if err != nil {
		return err
	}
	if claims.Profile != profile {
		return errors.New("teacher session belongs to another profile")
	}
	return nil
}

// PassTTL 暴露访问令牌有效期。
func (s *AccessPassService) PassTTL() time.Duration {
	return s.passTTL
}

func (s *AccessPassService) parse(tokenString, kind string) (*PassClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &PassClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*PassClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("unexpected token kind: %s", claims.Kind)
	}
	return claims, nil
}

func (s *AccessPassService) sign(claims PassClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
