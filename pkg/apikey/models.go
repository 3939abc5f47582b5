package apikey

import (
	"database/sql"
	"encoding/json"

	"github.com/pitabwire/frame/data"
)

// Key types.
const (
	TypePublishable = "pk"
	TypeSecret      = "sk"
)

// APIKey is an issued key. Only the HMAC of the full key is stored.
type APIKey struct {
	data.BaseModel

	Name        string       `gorm:"type:varchar(255);not null"            json:"name"`
	Type        string       `gorm:"type:varchar(8);not null;default:'pk'" json:"type"`
	Prefix      string       `gorm:"type:varchar(32);not null;uniqueIndex" json:"prefix"`
	Hash        string       `gorm:"type:varchar(128);not null"            json:"-"`
	Scopes      StringList   `gorm:"type:jsonb;default:'[]'"               json:"scopes"`
	RatePerMin  int          `gorm:"default:60"                            json:"rate_per_min"`
	DailyQuota  int          `gorm:"default:2000"                          json:"daily_quota"`
	DomainAllow StringList   `gorm:"type:jsonb;default:'[]'"               json:"domain_allow"`
	CreatedBy   string       `gorm:"type:varchar(255)"                     json:"created_by,omitempty"`
	RevokedAt   sql.NullTime `json:"revoked_at,omitempty"`
	LastUsedAt  sql.NullTime `json:"last_used_at,omitempty"`
}

func (APIKey) TableName() string { return "api_keys" }

// Revoked reports whether the key has been revoked.
func (k *APIKey) Revoked() bool { return k.RevokedAt.Valid }

// StringList is a custom GORM type for JSONB storage of string lists.
type StringList []string

func (s StringList) Value() (interface{}, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		*s = StringList{}
		return nil
	}
}
