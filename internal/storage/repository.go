package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/pkg/utils"
)

const defaultEventLimit = 100

// RecordKicks appends one audit row per executed kick.
func (r *Repository) RecordKicks(ctx context.Context, actions []model.KickAction) error {
	if len(actions) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kick_events (id, mac, ip, display_name, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := formatTime(utils.NowUTC())
	for _, action := range actions {
		name := action.Client.DisplayName
		if name == "" {
			name = action.Client.SystemName
		}
		if _, err := stmt.ExecContext(
			ctx,
			uuid.NewString(),
			model.NormalizeMAC(action.MAC),
			action.Client.IP,
			name,
			string(action.Reason),
			now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListKickEvents returns the newest audit rows first.
func (r *Repository) ListKickEvents(ctx context.Context, limit int) ([]model.KickEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, mac, ip, display_name, reason, created_at
		FROM kick_events
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.KickEvent{}
	for rows.Next() {
		var (
			event     model.KickEvent
			reason    string
			createdAt string
		)
		if err := rows.Scan(&event.ID, &event.MAC, &event.IP, &event.DisplayName, &reason, &createdAt); err != nil {
			return nil, err
		}
		event.Reason = model.KickReason(reason)
		event.CreatedAt = parseTime(createdAt)
		events = append(events, event)
	}
	return events, rows.Err()
}

// UpsertSightings refreshes last-seen data for every surfaced client.
func (r *Repository) UpsertSightings(ctx context.Context, clients []model.ClientRecord) error {
	if len(clients) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO client_sightings (mac, last_ip, last_name, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(mac) DO UPDATE SET
			last_ip=excluded.last_ip,
			last_name=excluded.last_name,
			last_seen_at=excluded.last_seen_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := formatTime(utils.NowUTC())
	for _, client := range clients {
		if _, err := stmt.ExecContext(
			ctx,
			model.NormalizeMAC(client.MAC),
			client.IP,
			client.DisplayName,
			now,
			now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSightings returns every MAC ever surfaced, most recently seen first.
func (r *Repository) ListSightings(ctx context.Context) ([]model.ClientSighting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mac, last_ip, last_name, first_seen_at, last_seen_at
		FROM client_sightings
		ORDER BY last_seen_at DESC, mac`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ClientSighting{}
	for rows.Next() {
		var (
			s                   model.ClientSighting
			firstSeen, lastSeen string
		)
		if err := rows.Scan(&s.MAC, &s.LastIP, &s.LastName, &firstSeen, &lastSeen); err != nil {
			return nil, err
		}
		s.FirstSeenAt = parseTime(firstSeen)
		s.LastSeenAt = parseTime(lastSeen)
		out = append(out, s)
	}
	return out, rows.Err()
}
