/*
Podcastr
Copyright (C) 2024 The Podcastr Authors

This file is part of Podcastr.

Podcastr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Podcastr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Podcastr.  If not, see <http://www.gnu.org/licenses/>.
*/

package episodes

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/podcastr/podcastr/pkg/database"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const prerenderWorkers = 4

type Fetcher interface {
	Get(ctx context.Context, id string) (Record, error)
	Latest(ctx context.Context, limit int) ([]Record, error)
}

// Lookup serves episode details from the database cache, fetching from
// the API on a miss and revalidating stale entries in the background.
type Lookup struct {
	fetcher Fetcher
	db      *database.Database
	ttl     func() time.Duration
	now     func() time.Time
	group   singleflight.Group
	wg      sync.WaitGroup
}

func NewLookup(fetcher Fetcher, db *database.Database, ttl func() time.Duration) *Lookup {
	return &Lookup{
		fetcher: fetcher,
		db:      db,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (l *Lookup) store(id string, r Record) {
	data, err := json.Marshal(r)
	if err != nil {
		log.Error().Err(err).Msg("error encoding episode for cache")
		return
	}

	err = l.db.PutEpisode(id, database.CachedEpisode{
		Data:    data,
		Fetched: l.now(),
	})
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("error caching episode")
	}
}

// fetch gets an episode from the API and caches it. Concurrent fetches for
// the same id share a single request, which isn't tied to any one caller's
// context so a caller giving up doesn't fail the others.
func (l *Lookup) fetch(ctx context.Context, id string) (Record, error) {
	ch := l.group.DoChan(id, func() (any, error) {
		l.wg.Add(1)
		defer l.wg.Done()

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RequestTimeout)
		defer cancel()

		r, err := l.fetcher.Get(fctx, id)
		if errors.Is(err, ErrNotFound) {
			rmErr := l.db.RemoveEpisode(id)
			if rmErr != nil {
				log.Warn().Err(rmErr).Str("id", id).Msg("error removing cached episode")
			}
			return Record{}, err
		} else if err != nil {
			return Record{}, err
		}

		l.store(id, r)
		return r, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Record{}, res.Err
		}
		return res.Val.(Record), nil
	case <-ctx.Done():
		return Record{}, ctx.Err()
	}
}

func (l *Lookup) revalidate(id string) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()

		log.Debug().Str("id", id).Msg("revalidating cached episode")
		_, err := l.fetch(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("id", id).Msg("error revalidating episode")
		}
	}()
}

// Get returns the details for an episode id. Fresh cache entries are
// returned as is, stale ones are returned and refreshed in the background
// and missing ones are fetched before returning.
func (l *Lookup) Get(ctx context.Context, id string) (Details, error) {
	ce, err := l.db.GetEpisode(id)
	if err == nil {
		var r Record
		err = json.Unmarshal(ce.Data, &r)
		if err == nil {
			if l.now().Sub(ce.Fetched) >= l.ttl() {
				l.revalidate(id)
			}
			return NewDetails(r)
		}
		log.Warn().Err(err).Str("id", id).Msg("invalid cached episode, refetching")
	} else if !errors.Is(err, database.ErrNotFound) {
		log.Warn().Err(err).Str("id", id).Msg("error reading episode cache")
	}

	r, err := l.fetch(ctx, id)
	if err != nil {
		return Details{}, err
	}

	return NewDetails(r)
}

// Latest returns the details of the most recently published episodes and
// refreshes their cache entries.
func (l *Lookup) Latest(ctx context.Context, limit int) ([]Details, error) {
	rs, err := l.fetcher.Latest(ctx, limit)
	if err != nil {
		return nil, err
	}

	ds := make([]Details, 0, len(rs))
	for _, r := range rs {
		if r.ID == "" {
			continue
		}

		d, err := NewDetails(r)
		if err != nil {
			log.Warn().Err(err).Str("id", r.ID).Msg("skipping invalid episode")
			continue
		}

		l.store(r.ID, r)
		ds = append(ds, d)
	}

	return ds, nil
}

// Prerender fetches the ids of the latest episodes and warms the cache for
// each of them. Episodes which fail to fetch are logged and skipped.
func (l *Lookup) Prerender(ctx context.Context, limit int) ([]string, error) {
	rs, err := l.fetcher.Latest(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prerenderWorkers)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := l.fetch(gctx, id)
			if err != nil {
				log.Warn().Err(err).Str("id", id).Msg("error prerendering episode")
			}
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return ids, err
	}

	log.Info().Strs("ids", ids).Msg("prerendered episodes")

	return ids, nil
}

// Wait blocks until background revalidations and in flight fetches have
// finished.
func (l *Lookup) Wait() {
	l.wg.Wait()
}
