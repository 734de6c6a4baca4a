package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id         CHAR(36)      NOT NULL PRIMARY KEY,
		order_ref  VARCHAR(64)   NOT NULL,
		buyer_id   BIGINT        NOT NULL,
		item_name  VARCHAR(255)  NOT NULL,
		gross      DECIMAL(12,2) NOT NULL,
		fee        DECIMAL(12,2) NOT NULL,
		status     VARCHAR(16)   NOT NULL DEFAULT 'pending',
		created_at DATETIME(6)   NOT NULL,
		updated_at DATETIME(6)   NOT NULL,
		UNIQUE KEY uq_transactions_order_ref (order_ref),
		KEY idx_transactions_buyer (buyer_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS gifts (
		id          BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(255)  NOT NULL,
		price       DECIMAL(12,2) NOT NULL,
		description TEXT          NOT NULL,
		is_active   BOOLEAN       NOT NULL DEFAULT TRUE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

type seedGift struct {
	name        string
	price       int64
	description string
}

var defaultGifts = []seedGift{
	{"Just because", 222, "Just to lift the mood 😄"},
	{"Coffee", 300, "For a cup of good coffee ☕"},
	{"Cozy evening", 500, "For a cozy evening at home 🛋️"},
	{"Treats for Marsik", 1111, "The cat will say thanks and purr 🐱"},
	{"Emotional rollercoaster", 1222, "For my emotional ups and downs 🎢 (joke)"},
	{"New photos", 1555, "For channel content 📸"},
	{"Pack of Kinders", 2000, "I'll build a collection and crunch 🍫"},
	{"Double pack of Kinders", 3333, "Crunch for the whole channel 🍫🍫"},
	{"Therapy fund", 4444, "For mental health and therapy 🧠"},
	{"New sweater", 5000, "For a wardrobe update 👚"},
	{"Sell my soul", 6666, "For small dark desires 😈"},
	{"CS cases", 10000, "For game content / a skin 🎮"},
	{"Tattoo", 15000, "We pick the sketch together 🎨"},
	{"Stream cosplay", 20000, "Vote for the look live 🎭"},
	{"CS knife", 25000, "A gamer's dream (skin) 🗡️"},
	{"FOR THE DREAM", 150000, "A big goal, thanks for believing ✨"},
}

// Migrate creates the schema and seeds the gift catalog when it is empty.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gifts`).Scan(&count); err != nil {
		return fmt.Errorf("count gifts: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, g := range defaultGifts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO gifts (name, price, description) VALUES (?, ?, ?)`,
			g.name, g.price, g.description)
		if err != nil {
			return fmt.Errorf("seed gift %q: %w", g.name, err)
		}
	}

	return tx.Commit()
}
