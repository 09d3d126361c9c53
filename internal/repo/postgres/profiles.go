package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/postpilot/api/internal/domain/profile"
	"github.com/postpilot/api/internal/domain/user"
	"github.com/postpilot/api/internal/observability"
	"github.com/postpilot/api/internal/quota"
)

type ProfilesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProfilesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProfilesRepo {
	return &ProfilesRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *ProfilesRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

const profileColumns = `id, user_id, business_name, profile_picture_url, industry,
	facebook_page_url, twitter_handle, instagram_handle, linkedin_page_url,
	target_audience_description, target_audience_keywords, created_at, updated_at`

func scanProfile(row pgx.Row) (profile.Profile, error) {
	var p profile.Profile

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.BusinessName,
		&p.ProfilePictureURL,
		&p.Industry,
		&p.FacebookPageURL,
		&p.TwitterHandle,
		&p.InstagramHandle,
		&p.LinkedinPageURL,
		&p.TargetAudience,
		&p.TargetKeywords,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		return profile.Profile{}, err
	}

	return p, nil
}

func (repo *ProfilesRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return repo.pool.BeginTx(ctx, pgx.TxOptions{})
}

// CreateTx inserts a profile after re-checking the plan quota under a lock on
// the owner's user row. Two concurrent creates for the same free-tier user
// serialize on that lock, so exactly one of them can win.
func (repo *ProfilesRepo) CreateTx(ctx context.Context, tx pgx.Tx, req profile.CreateProfileRequest) (p profile.Profile, err error) {
	// 1) lock the owner row; this also yields the current tier
	var tier string
	err = repo.observe("profiles.create_tx.owner_lock", func() error {
		return tx.QueryRow(ctx, `
			SELECT user_type FROM users
			WHERE id = $1
			FOR UPDATE
		`, req.UserID).Scan(&tier)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
		}

		return
	}

	// 2) count owned profiles and evaluate the policy at write time
	var owned int
	err = repo.observe("profiles.create_tx.count", func() error {
		return tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM business_profiles WHERE user_id = $1`,
			req.UserID,
		).Scan(&owned)
	})

	if err != nil {
		return
	}

	if !quota.CanCreate(tier, owned) {
		err = quota.ErrQuotaExceeded
		return
	}

	p = profile.NewFromCreateRequest(req)

	err = repo.observe("profiles.create_tx.insert", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO business_profiles (id, user_id, business_name, profile_picture_url, industry,
				facebook_page_url, twitter_handle, instagram_handle, linkedin_page_url,
				target_audience_description, target_audience_keywords, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`, p.ID, p.UserID, p.BusinessName, p.ProfilePictureURL, p.Industry,
			p.FacebookPageURL, p.TwitterHandle, p.InstagramHandle, p.LinkedinPageURL,
			p.TargetAudience, p.TargetKeywords, p.CreatedAt, p.UpdatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// owner vanished between lock and insert; treat as missing user
			err = user.ErrNotFound
		}
		return
	}

	return
}

// Create wraps CreateTx in a single transaction.
func (repo *ProfilesRepo) Create(ctx context.Context, req profile.CreateProfileRequest) (p profile.Profile, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	p, err = repo.CreateTx(ctx, tx, req)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

func (repo *ProfilesRepo) GetByID(ctx context.Context, id string) (p profile.Profile, err error) {
	err = repo.observe("profiles.get_by_id", func() error {
		var e error
		p, e = scanProfile(repo.pool.QueryRow(ctx,
			`SELECT `+profileColumns+` FROM business_profiles WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, profile.ErrNotFound
		}

		return profile.Profile{}, err
	}

	return p, nil
}

func (repo *ProfilesRepo) ListByUser(ctx context.Context, userID string) (profiles []profile.Profile, err error) {
	var rows pgx.Rows

	err = repo.observe("profiles.list_by_user", func() error {
		var e error
		rows, e = repo.pool.Query(ctx,
			`SELECT `+profileColumns+`
			 FROM business_profiles
			 WHERE user_id = $1
			 ORDER BY created_at ASC, id ASC`,
			userID,
		)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	profiles = make([]profile.Profile, 0)

	for rows.Next() {
		p, e := scanProfile(rows)

		if e != nil {
			err = e
			return
		}
		profiles = append(profiles, p)
	}

	err = rows.Err()

	return
}

func (repo *ProfilesRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var total int
	err := repo.observe("profiles.count_by_user", func() error {
		return repo.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM business_profiles WHERE user_id = $1`,
			userID,
		).Scan(&total)
	})
	return total, err
}

func (repo *ProfilesRepo) Update(ctx context.Context, p profile.Profile) (updated profile.Profile, err error) {
	err = repo.observe("profiles.update", func() error {
		var e error
		updated, e = scanProfile(repo.pool.QueryRow(ctx, `
			UPDATE business_profiles
			SET business_name = $2,
				profile_picture_url = $3,
				industry = $4,
				facebook_page_url = $5,
				twitter_handle = $6,
				instagram_handle = $7,
				linkedin_page_url = $8,
				target_audience_description = $9,
				target_audience_keywords = $10,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+profileColumns,
			p.ID, p.BusinessName, p.ProfilePictureURL, p.Industry,
			p.FacebookPageURL, p.TwitterHandle, p.InstagramHandle, p.LinkedinPageURL,
			p.TargetAudience, p.TargetKeywords,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, profile.ErrNotFound
		}

		return profile.Profile{}, err
	}

	return updated, nil
}

func (repo *ProfilesRepo) Delete(ctx context.Context, id string) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("profiles.delete", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx,
			`DELETE FROM business_profiles WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = profile.ErrNotFound
	}

	return
}
