package db

import (
	"context"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []struct {
	table string
	ddl   string
}{
	{"users", `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL DEFAULT '',
	username VARCHAR(100) NOT NULL,
	email VARCHAR(255) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(32) NOT NULL DEFAULT 'PASSENGER',
	status VARCHAR(32) NOT NULL DEFAULT 'active',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_username (username),
	UNIQUE KEY uniq_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"buses", `
CREATE TABLE IF NOT EXISTS buses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_number VARCHAR(50) NOT NULL,
	bus_name VARCHAR(255) NOT NULL DEFAULT '',
	total_seats INT NOT NULL,
	UNIQUE KEY uniq_bus_number (bus_number)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"routes", `
CREATE TABLE IF NOT EXISTS routes (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	origin VARCHAR(255) NOT NULL,
	destination VARCHAR(255) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"bus_stops", `
CREATE TABLE IF NOT EXISTS bus_stops (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	route_id BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL,
	latitude DOUBLE NOT NULL DEFAULT 0,
	longitude DOUBLE NOT NULL DEFAULT 0,
	sequence INT NOT NULL,
	KEY idx_route (route_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"schedules", `
CREATE TABLE IF NOT EXISTS schedules (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_id BIGINT NOT NULL,
	route_id BIGINT NOT NULL,
	departure_time DATETIME NOT NULL,
	available_seats INT NOT NULL,
	KEY idx_bus (bus_id),
	KEY idx_route (route_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	// No unique key on (schedule_id, seat_number): seat uniqueness is checked
	// by the booking service under the schedule lock.
	{"reservations", `
CREATE TABLE IF NOT EXISTS reservations (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	schedule_id BIGINT NOT NULL,
	seat_number INT NOT NULL,
	passenger_name VARCHAR(255) NOT NULL,
	passenger_email VARCHAR(255) NOT NULL,
	username VARCHAR(100) NULL,
	created_by VARCHAR(100) NOT NULL DEFAULT '',
	booking_time DATETIME NOT NULL,
	paid TINYINT(1) NOT NULL DEFAULT 0,
	payment_method VARCHAR(50) NULL,
	payment_reference VARCHAR(255) NULL,
	pickup_stop_id BIGINT NULL,
	drop_stop_id BIGINT NULL,
	KEY idx_schedule (schedule_id),
	KEY idx_username (username),
	KEY idx_email (passenger_email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"seat_states", `
CREATE TABLE IF NOT EXISTS seat_states (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	schedule_id BIGINT NOT NULL,
	seat_number INT NOT NULL,
	state VARCHAR(16) NOT NULL,
	updated_by VARCHAR(100) NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL,
	UNIQUE KEY uniq_schedule_seat (schedule_id, seat_number)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"reservation_history", `
CREATE TABLE IF NOT EXISTS reservation_history (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	reservation_id BIGINT NOT NULL,
	schedule_id BIGINT NOT NULL,
	seat_number INT NOT NULL,
	passenger_name VARCHAR(255) NOT NULL,
	passenger_email VARCHAR(255) NOT NULL,
	username VARCHAR(100) NOT NULL DEFAULT '',
	created_by VARCHAR(100) NOT NULL DEFAULT '',
	status VARCHAR(16) NOT NULL,
	paid TINYINT(1) NOT NULL DEFAULT 0,
	at DATETIME NOT NULL,
	KEY idx_username (username)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
}

// EnsureSchema creates missing tables.
func EnsureSchema(ctx context.Context, q DBTX) error {
	for _, t := range schema {
		if HasTable(ctx, q, t.table) {
			continue
		}
		if _, err := q.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.table, err)
		}
	}
	return nil
}
