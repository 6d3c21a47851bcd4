package reward

import (
	"context"
	"log/slog"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"casechain/native/hierarchy"
)

// RankAudit is the per-participant line of an audit report.
type RankAudit struct {
	Address     common.Address `json:"address"`
	Referrer    common.Address `json:"referrer"`
	Depth       int            `json:"depth"`
	CareerValue *big.Int       `json:"careerValue"`
	CvRank      uint64         `json:"cvRank"`
	Rank        uint64         `json:"rank"`
	NextRank    uint64         `json:"nextRank"`
	Eligible    bool           `json:"eligible"`
	Blocker     string         `json:"blocker,omitempty"`
	Advanced    uint64         `json:"advanced"`
}

// AuditReport summarises a rank audit across the referral forest.
type AuditReport struct {
	Participants int         `json:"participants"`
	Roots        int         `json:"roots"`
	Height       int         `json:"height"`
	Eligible     int         `json:"eligible"`
	Advanced     uint64      `json:"advanced"`
	Entries      []RankAudit `json:"entries"`
}

type participant struct {
	addr     common.Address
	referrer common.Address
}

// referralForest snapshots the referral graph as a forest keyed by address.
func (e *Engine) referralForest() (hierarchy.Forest[participant], error) {
	users, err := e.Users()
	if err != nil {
		return nil, err
	}
	members := make([]participant, 0, len(users))
	for _, addr := range users {
		referrer, err := e.state.RewardReferrer(addr)
		if err != nil {
			return nil, err
		}
		members = append(members, participant{addr: addr, referrer: referrer})
	}
	return hierarchy.BuildForest(members,
		func(p participant) common.Address { return p.addr },
		func(p participant) common.Address { return p.referrer })
}

// AuditRanks walks the referral forest leaves-first and evaluates every
// participant's next rank. With settle set, each eligible participant is
// ranked up until blocked, so a downline always settles before its upline is
// judged; settling runs one node at a time.
func (e *Engine) AuditRanks(ctx context.Context, settle bool, opts ...hierarchy.Option) (*AuditReport, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	forest, err := e.referralForest()
	if err != nil {
		return nil, err
	}
	if settle {
		opts = append(opts, hierarchy.WithConcurrency(1))
	}

	var (
		mu      sync.Mutex
		entries []RankAudit
	)
	err = forest.TraverseBottomUp(ctx, func(ctx context.Context, node *hierarchy.Node[participant]) error {
		entry, err := e.auditOne(node.Value.addr, settle)
		if err != nil {
			return err
		}
		entry.Referrer = node.Value.referrer
		entry.Depth = node.Depth
		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Depth != entries[j].Depth {
			return entries[i].Depth < entries[j].Depth
		}
		return entries[i].Address.Hex() < entries[j].Address.Hex()
	})
	report := &AuditReport{
		Participants: len(entries),
		Roots:        len(forest),
		Height:       forest.Height(),
		Entries:      entries,
	}
	for _, entry := range entries {
		if entry.Eligible {
			report.Eligible++
		}
		report.Advanced += entry.Advanced
	}
	e.logger.Info("rank audit complete",
		slog.Int("participants", report.Participants),
		slog.Int("eligible", report.Eligible),
		slog.Uint64("advanced", report.Advanced),
		slog.Bool("settle", settle))
	return report, nil
}

func (e *Engine) auditOne(addr common.Address, settle bool) (RankAudit, error) {
	entry := RankAudit{Address: addr}
	if settle {
		for {
			if _, _, err := e.RankUp(addr); err != nil {
				if IsRankBlocked(err) {
					break
				}
				return entry, err
			}
			entry.Advanced++
		}
	}
	next, blocker := e.RankEligibility(addr)
	if blocker != nil && !IsRankBlocked(blocker) {
		return entry, blocker
	}
	cv, err := e.state.RewardCareerValue(addr)
	if err != nil {
		return entry, err
	}
	rank, err := e.state.RewardRank(addr)
	if err != nil {
		return entry, err
	}
	entry.CareerValue = cv
	entry.CvRank = e.params.cvTier(cv)
	entry.Rank = rank
	entry.NextRank = next
	entry.Eligible = blocker == nil
	if blocker != nil {
		entry.Blocker = blocker.Error()
	}
	return entry, nil
}
