package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"topmovies/internal/microservices/http-api/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	redisNextIDKey = "movies:next_id"
	redisIndexKey  = "movies:ids" // sorted set, score = id

	redisMaxTxRetries = 5
)

// MovieRedisRepository keeps each movie in a hash keyed by id. Ids come from
// INCR so they are never handed out twice.
type MovieRedisRepository struct {
	client *redis.Client
}

var _ MovieRepository = (*MovieRedisRepository)(nil)

func NewMovieRedisRepository(client *redis.Client) *MovieRedisRepository {
	return &MovieRedisRepository{client: client}
}

func movieKey(id int64) string {
	return fmt.Sprintf("movie:%d", id)
}

func (r *MovieRedisRepository) ListAll(ctx context.Context) ([]models.Movie, error) {
	ids, err := r.client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list movie ids: %w", err)
	}
	if len(ids) == 0 {
		return []models.Movie{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, 0, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			cmds = append(cmds, pipe.HGetAll(ctx, "movie:"+id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load movies: %w", err)
	}

	list := make([]models.Movie, 0, len(cmds))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// deleted between ZRANGE and HGETALL
			continue
		}
		m, err := movieFromHash(fields)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, nil
}

func (r *MovieRedisRepository) GetByID(ctx context.Context, id int64) (*models.Movie, error) {
	fields, err := r.client.HGetAll(ctx, movieKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, ErrRecordNotFound
	}
	return movieFromHash(fields)
}

func (r *MovieRedisRepository) Create(ctx context.Context, m *models.Movie) error {
	id, err := r.client.Incr(ctx, redisNextIDKey).Result()
	if err != nil {
		return fmt.Errorf("allocate movie id: %w", err)
	}

	now := time.Now().UTC()
	m.ID = id
	m.Rating = decimal.NullDecimal{}
	m.Ranking = nil
	m.Review = nil
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, movieKey(id), movieToHash(m))
		pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("create movie: %w", err)
	}
	return nil
}

func (r *MovieRedisRepository) UpdateRatingAndReview(ctx context.Context, id int64, version int, rating decimal.Decimal, review string) (*models.Movie, error) {
	key := movieKey(id)
	var updated *models.Movie

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return ErrRecordNotFound
		}
		m, err := movieFromHash(fields)
		if err != nil {
			return err
		}
		if version > 0 && m.Version != version {
			return ErrEditConflict
		}

		m.Rating = decimal.NewNullDecimal(rating)
		m.Review = &review
		m.Version++
		m.UpdatedAt = time.Now().UTC()

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, movieToHash(m))
			return nil
		})
		if err != nil {
			return err
		}
		updated = m
		return nil
	}, key)

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, redis.TxFailedErr):
		return nil, ErrEditConflict
	case errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrEditConflict):
		return nil, err
	default:
		return nil, fmt.Errorf("update movie %d: %w", id, err)
	}
}

func (r *MovieRedisRepository) UpdateRanking(ctx context.Context, id int64, ranking int) error {
	key := movieKey(id)
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrRecordNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "ranking", ranking)
			return nil
		})
		return err
	}

	// a concurrent edit of the same hash aborts the transaction; watch again
	for range redisMaxTxRetries {
		err := r.client.Watch(ctx, txf, key)
		switch {
		case err == nil, errors.Is(err, ErrRecordNotFound):
			return err
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return fmt.Errorf("update ranking of movie %d: %w", id, err)
		}
	}
	return fmt.Errorf("update ranking of movie %d: %w", id, redis.TxFailedErr)
}

func (r *MovieRedisRepository) Delete(ctx context.Context, id int64) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, movieKey(id))
		pipe.ZRem(ctx, redisIndexKey, strconv.FormatInt(id, 10))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *MovieRedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func movieToHash(m *models.Movie) map[string]any {
	fields := map[string]any{
		"id":          m.ID,
		"title":       m.Title,
		"year":        m.Year,
		"description": m.Description,
		"img_url":     m.PosterURL,
		"version":     m.Version,
		"rating":      "",
		"ranking":     "",
		"review":      "",
		"has_review":  "0",
		"created_at":  m.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  m.UpdatedAt.Format(time.RFC3339Nano),
	}
	if m.Rating.Valid {
		fields["rating"] = m.Rating.Decimal.String()
	}
	if m.Ranking != nil {
		fields["ranking"] = *m.Ranking
	}
	if m.Review != nil {
		fields["review"] = *m.Review
		fields["has_review"] = "1"
	}
	return fields
}

func movieFromHash(fields map[string]string) (*models.Movie, error) {
	m := &models.Movie{
		Title:       fields["title"],
		Description: fields["description"],
		PosterURL:   fields["img_url"],
	}

	var err error
	if m.ID, err = strconv.ParseInt(fields["id"], 10, 64); err != nil {
		return nil, fmt.Errorf("decode movie id %q: %w", fields["id"], err)
	}
	if m.Year, err = strconv.Atoi(fields["year"]); err != nil {
		return nil, fmt.Errorf("decode year of movie %d: %w", m.ID, err)
	}
	if m.Version, err = strconv.Atoi(fields["version"]); err != nil {
		return nil, fmt.Errorf("decode version of movie %d: %w", m.ID, err)
	}
	if v := fields["rating"]; v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("decode rating of movie %d: %w", m.ID, err)
		}
		m.Rating = decimal.NewNullDecimal(d)
	}
	if v := fields["ranking"]; v != "" {
		rank, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("decode ranking of movie %d: %w", m.ID, err)
		}
		m.Ranking = &rank
	}
	if fields["has_review"] == "1" {
		review := fields["review"]
		m.Review = &review
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	m.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])
	return m, nil
}
