package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohit0110/pact/internal/models"
)

// PostgresOptions tunes the connection pool
type PostgresOptions struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPostgresOptions returns the pool settings used by pactd
func DefaultPostgresOptions() PostgresOptions {
	return PostgresOptions{
		MaxConns:          10,
		MinConns:          1,
		MaxConnLifetime:   30 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// PostgresStore implements Store and ActivityRepository using PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and applies the schema
func NewPostgresStore(ctx context.Context, databaseURL string, opts PostgresOptions) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = opts.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	slog.Debug("postgres store ready", "max_conns", cfg.MaxConns)

	return &PostgresStore{pool: pool}, nil
}

// Update runs fn in a transaction holding an advisory lock on lockKey.
// Pact, stake and balance rows read through the transaction are locked FOR UPDATE.
func (s *PostgresStore) Update(ctx context.Context, lockKey solana.PublicKey, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey.String()); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if err := fn(&postgresTx{tx: tx, writable: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// View runs fn in a read-only repeatable-read transaction
func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	return fn(&postgresTx{tx: tx})
}

// SaveActivity inserts an activity, ignoring replays of the same id
func (s *PostgresStore) SaveActivity(ctx context.Context, activity *models.Activity) error {
	detailJSON, err := json.Marshal(activity.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal detail: %w", err)
	}
	amount, err := toStorable(activity.Amount)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO pact_activities (
			activity_id, pact, kind, actor, amount, occurred_at, detail
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (activity_id) DO NOTHING
	`

	_, err = s.pool.Exec(ctx, query,
		activity.ActivityID,
		activity.Pact.String(),
		string(activity.Kind),
		activity.Actor.String(),
		amount,
		activity.OccurredAt,
		detailJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

// ListActivities lists activities newest first
func (s *PostgresStore) ListActivities(ctx context.Context, filter models.ActivityFilter) ([]*models.Activity, error) {
	var where []string
	var args []interface{}
	if !filter.Pact.IsZero() {
		args = append(args, filter.Pact.String())
		where = append(where, fmt.Sprintf("pact = $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}

	query := `SELECT activity_id, pact, kind, actor, amount, occurred_at, detail FROM pact_activities`
	query += whereClause(where)
	query += ` ORDER BY occurred_at DESC, activity_id DESC`
	query, args = pageClause(query, args, filter.Limit, filter.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var (
			a          models.Activity
			pact       string
			kind       string
			actor      string
			amount     int64
			detailJSON []byte
		)
		if err := rows.Scan(&a.ActivityID, &pact, &kind, &actor, &amount, &a.OccurredAt, &detailJSON); err != nil {
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
		a.OccurredAt = a.OccurredAt.UTC()
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &a.Detail); err != nil {
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

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type postgresTx struct {
	tx       pgx.Tx
	writable bool
}

// forUpdate locks selected rows when the transaction can write
func (t *postgresTx) forUpdate() string {
	if t.writable {
		return " FOR UPDATE"
	}
	return ""
}

const pactColumns = `address, bump, name, description, creator, created_at, participants, status,
	goal_type, goal_value, verification_type, comparison_operator, stake, prize_pool,
	pact_vault, pact_vault_bump`

func (t *postgresTx) GetPact(ctx context.Context, address solana.PublicKey) (*models.ChallengePact, error) {
	query := `SELECT ` + pactColumns + ` FROM pacts WHERE address = $1` + t.forUpdate()
	pact, err := scanPostgresPact(t.tx.QueryRow(ctx, query, address.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pact: %w", err)
	}
	return pact, nil
}

func (t *postgresTx) PutPact(ctx context.Context, pact *models.ChallengePact) error {
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

	query := `
		INSERT INTO pacts (` + pactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (address) DO UPDATE SET
			participants = EXCLUDED.participants,
			status = EXCLUDED.status,
			prize_pool = EXCLUDED.prize_pool
	`

	_, err = t.tx.Exec(ctx, query,
		pact.Address.String(),
		int16(pact.Bump),
		pact.Name,
		pact.Description,
		pact.Creator.String(),
		pact.CreatedAt,
		keyStrings(pact.Participants),
		string(pact.Status),
		string(pact.GoalType),
		goalValue,
		string(pact.VerificationType),
		string(pact.ComparisonOperator),
		stake,
		prizePool,
		pact.PactVault.String(),
		int16(pact.PactVaultBump),
	)
	if err != nil {
		return fmt.Errorf("failed to save pact: %w", err)
	}
	return nil
}

func (t *postgresTx) ListPacts(ctx context.Context, filter models.PactFilter) ([]*models.ChallengePact, error) {
	where, args := pactWhere(filter)
	query := `SELECT ` + pactColumns + ` FROM pacts` + whereClause(where) + ` ORDER BY created_at, address`
	query, args = pageClause(query, args, filter.Limit, filter.Offset)

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pacts: %w", err)
	}
	defer rows.Close()

	var pacts []*models.ChallengePact
	for rows.Next() {
		pact, err := scanPostgresPact(rows)
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

func (t *postgresTx) CountPacts(ctx context.Context, filter models.PactFilter) (int, error) {
	where, args := pactWhere(filter)
	var count int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM pacts`+whereClause(where), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pacts: %w", err)
	}
	return count, nil
}

func (t *postgresTx) GetStake(ctx context.Context, address solana.PublicKey) (*models.ParticipantStake, error) {
	query := `
		SELECT address, bump, participant, pact, has_staked, is_eliminated, eliminated_at
		FROM participant_stakes WHERE address = $1` + t.forUpdate()

	var (
		s                       models.ParticipantStake
		addr, participant, pact string
		bump                    int16
	)
	err := t.tx.QueryRow(ctx, query, address.String()).Scan(
		&addr, &bump, &participant, &pact, &s.HasStaked, &s.IsEliminated, &s.EliminatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
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
	if s.EliminatedAt != nil {
		at := s.EliminatedAt.UTC()
		s.EliminatedAt = &at
	}
	return &s, nil
}

func (t *postgresTx) PutStake(ctx context.Context, stake *models.ParticipantStake) error {
	if !t.writable {
		return ErrReadOnly
	}
	query := `
		INSERT INTO participant_stakes (
			address, bump, participant, pact, has_staked, is_eliminated, eliminated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO UPDATE SET
			has_staked = EXCLUDED.has_staked,
			is_eliminated = EXCLUDED.is_eliminated,
			eliminated_at = EXCLUDED.eliminated_at
	`
	_, err := t.tx.Exec(ctx, query,
		stake.Address.String(),
		int16(stake.Bump),
		stake.Participant.String(),
		stake.Pact.String(),
		stake.HasStaked,
		stake.IsEliminated,
		stake.EliminatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save stake: %w", err)
	}
	return nil
}

func (t *postgresTx) GetProfile(ctx context.Context, address solana.PublicKey) (*models.PlayerProfile, error) {
	query := `
		SELECT address, bump, owner, name, active_pacts, pacts_won, pacts_lost
		FROM player_profiles WHERE address = $1` + t.forUpdate()

	var (
		p           models.PlayerProfile
		addr, owner string
		bump        int16
		active      []string
		won, lost   int64
	)
	err := t.tx.QueryRow(ctx, query, address.String()).Scan(&addr, &bump, &owner, &p.Name, &active, &won, &lost)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p.Address, err = parseKey(addr); err != nil {
		return nil, err
	}
	if p.Owner, err = parseKey(owner); err != nil {
		return nil, err
	}
	if p.ActivePacts, err = parseKeys(active); err != nil {
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

func (t *postgresTx) PutProfile(ctx context.Context, profile *models.PlayerProfile) error {
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
	query := `
		INSERT INTO player_profiles (
			address, bump, owner, name, active_pacts, pacts_won, pacts_lost
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			active_pacts = EXCLUDED.active_pacts,
			pacts_won = EXCLUDED.pacts_won,
			pacts_lost = EXCLUDED.pacts_lost
	`
	_, err = t.tx.Exec(ctx, query,
		profile.Address.String(),
		int16(profile.Bump),
		profile.Owner.String(),
		profile.Name,
		keyStrings(profile.ActivePacts),
		won,
		lost,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (t *postgresTx) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	if t.writable {
		// Materialize the row so it can be locked
		_, err := t.tx.Exec(ctx,
			`INSERT INTO account_balances (account, amount) VALUES ($1, 0) ON CONFLICT (account) DO NOTHING`,
			account.String())
		if err != nil {
			return 0, fmt.Errorf("failed to prepare balance: %w", err)
		}
	}

	var amount int64
	err := t.tx.QueryRow(ctx,
		`SELECT amount FROM account_balances WHERE account = $1`+t.forUpdate(),
		account.String()).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return fromStorable(amount)
}

func (t *postgresTx) SetBalance(ctx context.Context, account solana.PublicKey, amount uint64) error {
	if !t.writable {
		return ErrReadOnly
	}
	stored, err := toStorable(amount)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO account_balances (account, amount) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET amount = EXCLUDED.amount`,
		account.String(), stored)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return nil
}

func scanPostgresPact(row pgx.Row) (*models.ChallengePact, error) {
	var (
		p                            models.ChallengePact
		address, creator, vault      string
		bump, vaultBump              int16
		participants                 []string
		status, goalType, verif, cmp string
		goalValue, stake, prizePool  int64
	)
	err := row.Scan(
		&address, &bump, &p.Name, &p.Description, &creator, &p.CreatedAt, &participants, &status,
		&goalType, &goalValue, &verif, &cmp, &stake, &prizePool,
		&vault, &vaultBump,
	)
	if err != nil {
		return nil, err
	}
	return assemblePact(&p, pactRow{
		address:      address,
		creator:      creator,
		vault:        vault,
		bump:         uint8(bump),
		vaultBump:    uint8(vaultBump),
		participants: participants,
		status:       status,
		goalType:     goalType,
		verification: verif,
		comparison:   cmp,
		goalValue:    goalValue,
		stake:        stake,
		prizePool:    prizePool,
	})
}

// pactRow carries the storable columns shared by the SQL backends
type pactRow struct {
	address, creator, vault string
	bump, vaultBump         uint8
	participants            []string

	status, goalType, verification, comparison string
	goalValue, stake, prizePool                int64
}

func assemblePact(p *models.ChallengePact, row pactRow) (*models.ChallengePact, error) {
	var err error
	if p.Address, err = parseKey(row.address); err != nil {
		return nil, err
	}
	if p.Creator, err = parseKey(row.creator); err != nil {
		return nil, err
	}
	if p.PactVault, err = parseKey(row.vault); err != nil {
		return nil, err
	}
	if p.Participants, err = parseKeys(row.participants); err != nil {
		return nil, err
	}
	if p.GoalValue, err = fromStorable(row.goalValue); err != nil {
		return nil, err
	}
	if p.Stake, err = fromStorable(row.stake); err != nil {
		return nil, err
	}
	if p.PrizePool, err = fromStorable(row.prizePool); err != nil {
		return nil, err
	}
	p.Bump = row.bump
	p.PactVaultBump = row.vaultBump
	p.Status = models.PactStatus(row.status)
	p.GoalType = models.GoalType(row.goalType)
	p.VerificationType = models.VerificationType(row.verification)
	p.ComparisonOperator = models.ComparisonOperator(row.comparison)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func pactWhere(filter models.PactFilter) ([]string, []interface{}) {
	var where []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Creator != nil {
		args = append(args, filter.Creator.String())
		where = append(where, fmt.Sprintf("creator = $%d", len(args)))
	}
	return where, args
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

func pageClause(query string, args []interface{}, limit, offset int) (string, []interface{}) {
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}
