/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// BuildIndex retrieves every block of the channel, from block 0 up to the current height,
// and returns their transactions in ledger order. Any failure aborts the build and no
// partial index is returned.
func (c *Client) BuildIndex(ctx context.Context) ([]TransactionRecord, error) {
	records := []TransactionRecord{}

	err := c.walk(ctx, func(block *Block) error {
		records = append(records, block.Transactions...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Indexed %d transactions on channel [%s]", len(records), c.channelID)
	return records, nil
}

// BuildBlocks retrieves and decodes every block of the channel in ascending order
func (c *Client) BuildBlocks(ctx context.Context) ([]*Block, error) {
	blocks := []*Block{}

	err := c.walk(ctx, func(block *Block) error {
		blocks = append(blocks, block)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return blocks, nil
}

// walk calls emit for blocks 0 to height-1 in order, the height being read once at the start.
// It succeeds only if every block up to the height was emitted.
func (c *Client) walk(ctx context.Context, emit func(*Block) error) error {
	info, err := c.QueryInfo(ctx)
	if err != nil {
		return err
	}

	height := info.GetHeight()
	logger.Debugf("Walking %d blocks on channel [%s] with prefetch %d", height, c.channelID, c.prefetch)

	if height == 0 {
		return nil
	}

	var emitted uint64
	counted := func(block *Block) error {
		if block.Number != emitted {
			return errors.Errorf("expected block %d but got block %d", emitted, block.Number)
		}
		if err := emit(block); err != nil {
			return err
		}
		emitted++
		return nil
	}

	if c.prefetch <= 1 {
		err = c.sequentialWalk(ctx, height, counted)
	} else {
		err = c.prefetchWalk(ctx, height, counted)
	}
	if err != nil {
		return err
	}

	if emitted != height {
		return errors.Errorf("retrieved %d of %d blocks", emitted, height)
	}
	return nil
}

func (c *Client) sequentialWalk(ctx context.Context, height uint64, emit func(*Block) error) error {
	for number := uint64(0); number < height; number++ {
		if err := ctx.Err(); err != nil {
			return errors.WithMessagef(err, "failed to retrieve block %d", number)
		}
		block, err := c.QueryBlock(ctx, number)
		if err != nil {
			return errors.WithMessagef(err, "failed to retrieve block %d", number)
		}
		if err := emit(block); err != nil {
			return err
		}
	}
	return nil
}

type fetchResult struct {
	number uint64
	block  *Block
	err    error
}

// prefetchWalk retrieves up to c.prefetch blocks concurrently. Results are queued in block
// order so emission stays sequential.
func (c *Client) prefetchWalk(ctx context.Context, height uint64, emit func(*Block) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pending := make(chan chan fetchResult, c.prefetch-1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(pending)
		for number := uint64(0); number < height; number++ {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := make(chan fetchResult, 1)
			select {
			case pending <- result:
			case <-gctx.Done():
				return gctx.Err()
			}

			number := number
			g.Go(func() error {
				block, err := c.QueryBlock(gctx, number)
				result <- fetchResult{number: number, block: block, err: err}
				return nil
			})
		}
		return nil
	})

	var err error
	for result := range pending {
		r := <-result
		if r.err != nil {
			err = errors.WithMessagef(r.err, "failed to retrieve block %d", r.number)
			break
		}
		if err = emit(r.block); err != nil {
			break
		}
	}

	cancel()
	// unblock the producer if it is waiting on a full queue
	for range pending {
	}
	if waitErr := g.Wait(); waitErr != nil && err == nil {
		err = waitErr
	}

	return err
}
