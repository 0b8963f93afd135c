package domain

import "time"

type Player struct {
	ID        string    `db:"id" json:"id"`
	TgID      *int64    `db:"tg_id" json:"tg_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
