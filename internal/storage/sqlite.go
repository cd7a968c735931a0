package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	_ "modernc.org/sqlite"

	"github.com/rohit0110/pact/internal/models"
)

// SQLiteStore implements Store and ActivityRepository on a single-file database.
// One connection is kept open, so units of work run one at a time.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Update runs fn inside a transaction on the single connection
func (s *SQLiteStore) Update(ctx context.Context, lockKey solana.PublicKey, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{tx: tx, writable: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// View runs fn inside a transaction that refuses writes
func (s *SQLiteStore) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	return fn(&sqliteTx{tx: tx})
}

func (s *SQLiteStore) SaveActivity(ctx context.Context, activity *models.Activity) error {
	var detail sql.NullString
	if activity.Detail != nil {
		b, err := json.Marshal(activity.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal detail: %w", err)
		}
		detail = sql.NullString{String: string(b), Valid: true}
	}
	amount, err := toStorable(activity.Amount)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pact_activities (activity_id, pact, kind, actor, amount, occurred_at, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (activity_id) DO NOTHING`,
		activity.ActivityID,
		activity.Pact.String(),
		string(activity.Kind),
		activity.Actor.String(),
		amount,
		unixNanos(activity.OccurredAt),
		detail,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListActivities(ctx context.Context, filter models.ActivityFilter) ([]*models.Activity, error) {
	var where []string
	var args []interface{}
	if !filter.Pact.IsZero() {
		where = append(where, "pact = ?")
		args = append(args, filter.Pact.String())
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	query := `SELECT activity_id, pact, kind, actor, amount, occurred_at, detail FROM pact_activities` +
		whereClause(where) + ` ORDER BY occurred_at DESC, rowid DESC`
	query, args = sqlitePage(query, args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var (
			a                  models.Activity
			pact, kind, actor  string
			amount, occurredAt int64
			detail             sql.NullString
		)
		if err := rows.Scan(&a.ActivityID, &pact, &kind, &actor, &amount, &occurredAt, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if a.Pact, err = parseKey(pact); err != nil {
			return nil, err
		}
		if a.Actor, err = parseKey(actor); err != nil {
			return nil, err
		}
		if a.Amount, err = fromStorable(amount); err != nil {
			return nil, err
		}
		a.Kind = models.EventKind(kind)
		a.OccurredAt = fromUnixNanos(occurredAt)
		if detail.Valid {
			if err := json.Unmarshal([]byte(detail.String), &a.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
			}
		}
		activities = append(activities, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return activities, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteTx struct {
	tx       *sql.Tx
	writable bool
}

func (t *sqliteTx) GetPact(ctx context.Context, address solana.PublicKey) (*models.ChallengePact, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+pactColumns+` FROM pacts WHERE address = ?`, address.String())
	pact, err := scanSQLitePact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pact: %w", err)
	}
	return pact, nil
}

func (t *sqliteTx) PutPact(ctx context.Context, pact *models.ChallengePact) error {
	if !t.writable {
		return ErrReadOnly
	}
	goalValue, err := toStorable(pact.GoalValue)
	if err != nil {
		return err
	}
	stake, err := toStorable(pact.Stake)
	if err != nil {
		return err
	}
	prizePool, err := toStorable(pact.PrizePool)
	if err != nil {
		return err
	}
	participants, err := json.Marshal(keyStrings(pact.Participants))
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO pacts (`+pactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address) DO UPDATE SET
			participants = excluded.participants,
			status = excluded.status,
			prize_pool = excluded.prize_pool`,
		pact.Address.String(),
		int(pact.Bump),
		pact.Name,
		pact.Description,
		pact.Creator.String(),
		unixNanos(pact.CreatedAt),
		string(participants),
		string(pact.Status),
		string(pact.GoalType),
		goalValue,
		string(pact.VerificationType),
		string(pact.ComparisonOperator),
		stake,
		prizePool,
		pact.PactVault.String(),
		int(pact.PactVaultBump),
	)
	if err != nil {
		return fmt.Errorf("failed to save pact: %w", err)
	}
	return nil
}

func (t *sqliteTx) ListPacts(ctx context.Context, filter models.PactFilter) ([]*models.ChallengePact, error) {
	where, args := sqlitePactWhere(filter)
	query := `SELECT ` + pactColumns + ` FROM pacts` + whereClause(where) + ` ORDER BY created_at, address`
	query, args = sqlitePage(query, args, filter.Limit, filter.Offset)

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pacts: %w", err)
	}
	defer rows.Close()

	var pacts []*models.ChallengePact
	for rows.Next() {
		pact, err := scanSQLitePact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pact: %w", err)
		}
		pacts = append(pacts, pact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pacts: %w", err)
	}
	return pacts, nil
}

func (t *sqliteTx) CountPacts(ctx context.Context, filter models.PactFilter) (int, error) {
	where, args := sqlitePactWhere(filter)
	var count int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pacts`+whereClause(where), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pacts: %w", err)
	}
	return count, nil
}

func (t *sqliteTx) GetStake(ctx context.Context, address solana.PublicKey) (*models.ParticipantStake, error) {
	var (
		s                       models.ParticipantStake
		addr, participant, pact string
		bump                    int
		eliminatedAt            sql.NullInt64
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT address, bump, participant, pact, has_staked, is_eliminated, eliminated_at
		FROM participant_stakes WHERE address = ?`, address.String()).Scan(
		&addr, &bump, &participant, &pact, &s.HasStaked, &s.IsEliminated, &eliminatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stake: %w", err)
	}
	if s.Address, err = parseKey(addr); err != nil {
		return nil, err
	}
	if s.Participant, err = parseKey(participant); err != nil {
		return nil, err
	}
	if s.Pact, err = parseKey(pact); err != nil {
		return nil, err
	}
	s.Bump = uint8(bump)
	if eliminatedAt.Valid {
		at := fromUnixNanos(eliminatedAt.Int64)
		s.EliminatedAt = &at
	}
	return &s, nil
}

func (t *sqliteTx) PutStake(ctx context.Context, stake *models.ParticipantStake) error {
	if !t.writable {
		return ErrReadOnly
	}
	var eliminatedAt sql.NullInt64
	if stake.EliminatedAt != nil {
		eliminatedAt = sql.NullInt64{Int64: unixNanos(*stake.EliminatedAt), Valid: true}
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO participant_stakes (
			address, bump, participant, pact, has_staked, is_eliminated, eliminated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address) DO UPDATE SET
			has_staked = excluded.has_staked,
			is_eliminated = excluded.is_eliminated,
			eliminated_at = excluded.eliminated_at`,
		stake.Address.String(),
		int(stake.Bump),
		stake.Participant.String(),
		stake.Pact.String(),
		stake.HasStaked,
		stake.IsEliminated,
		eliminatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save stake: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetProfile(ctx context.Context, address solana.PublicKey) (*models.PlayerProfile, error) {
	var (
		p                   models.PlayerProfile
		addr, owner, active string
		bump                int
		won, lost           int64
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT address, bump, owner, name, active_pacts, pacts_won, pacts_lost
		FROM player_profiles WHERE address = ?`, address.String()).Scan(
		&addr, &bump, &owner, &p.Name, &active, &won, &lost,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	var activeKeys []string
	if err := json.Unmarshal([]byte(active), &activeKeys); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active pacts: %w", err)
	}
	if p.Address, err = parseKey(addr); err != nil {
		return nil, err
	}
	if p.Owner, err = parseKey(owner); err != nil {
		return nil, err
	}
	if p.ActivePacts, err = parseKeys(activeKeys); err != nil {
		return nil, err
	}
	if p.PactsWon, err = fromStorable(won); err != nil {
		return nil, err
	}
	if p.PactsLost, err = fromStorable(lost); err != nil {
		return nil, err
	}
	p.Bump = uint8(bump)
	return &p, nil
}

func (t *sqliteTx) PutProfile(ctx context.Context, profile *models.PlayerProfile) error {
	if !t.writable {
		return ErrReadOnly
	}
	won, err := toStorable(profile.PactsWon)
	if err != nil {
		return err
	}
	lost, err := toStorable(profile.PactsLost)
	if err != nil {
		return err
	}
	active, err := json.Marshal(keyStrings(profile.ActivePacts))
	if err != nil {
		return fmt.Errorf("failed to marshal active pacts: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO player_profiles (
			address, bump, owner, name, active_pacts, pacts_won, pacts_lost
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address) DO UPDATE SET
			name = excluded.name,
			active_pacts = excluded.active_pacts,
			pacts_won = excluded.pacts_won,
			pacts_lost = excluded.pacts_lost`,
		profile.Address.String(),
		int(profile.Bump),
		profile.Owner.String(),
		profile.Name,
		string(active),
		won,
		lost,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (t *sqliteTx) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var amount int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT amount FROM account_balances WHERE account = ?`, account.String()).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return fromStorable(amount)
}

func (t *sqliteTx) SetBalance(ctx context.Context, account solana.PublicKey, amount uint64) error {
	if !t.writable {
		return ErrReadOnly
	}
	stored, err := toStorable(amount)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO account_balances (account, amount) VALUES (?, ?)
		ON CONFLICT (account) DO UPDATE SET amount = excluded.amount`,
		account.String(), stored)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLitePact(row rowScanner) (*models.ChallengePact, error) {
	var (
		p                            models.ChallengePact
		address, creator, vault      string
		bump, vaultBump              int
		createdAt                    int64
		participants                 string
		status, goalType, verif, cmp string
		goalValue, stake, prizePool  int64
	)
	err := row.Scan(
		&address, &bump, &p.Name, &p.Description, &creator, &createdAt, &participants, &status,
		&goalType, &goalValue, &verif, &cmp, &stake, &prizePool,
		&vault, &vaultBump,
	)
	if err != nil {
		return nil, err
	}
	var keys []string
	if err := json.Unmarshal([]byte(participants), &keys); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	p.CreatedAt = fromUnixNanos(createdAt)
	return assemblePact(&p, pactRow{
		address:      address,
		creator:      creator,
		vault:        vault,
		bump:         uint8(bump),
		vaultBump:    uint8(vaultBump),
		participants: keys,
		status:       status,
		goalType:     goalType,
		verification: verif,
		comparison:   cmp,
		goalValue:    goalValue,
		stake:        stake,
		prizePool:    prizePool,
	})
}

func sqlitePactWhere(filter models.PactFilter) ([]string, []interface{}) {
	var where []string
	var args []interface{}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Creator != nil {
		where = append(where, "creator = ?")
		args = append(args, filter.Creator.String())
	}
	return where, args
}

func sqlitePage(query string, args []interface{}, limit, offset int) (string, []interface{}) {
	if limit <= 0 && offset <= 0 {
		return query, args
	}
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ? OFFSET ?"
	return query, append(args, limit, offset)
}
