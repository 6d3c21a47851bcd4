package explorer

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"casechain/core/events"
)

func TestExportParquet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := common.HexToAddress("0x00000000000000000000000000000000000000e0")
	for i := 1; i <= 3; i++ {
		evt := events.TokenMinted{Minter: owner, To: owner, Amount: big.NewInt(int64(i)), Supply: big.NewInt(int64(i))}
		store.Emit(events.Stamp(evt, uint64(i), 1_700_000_000+int64(i)))
	}

	var buf bytes.Buffer
	written, err := store.ExportParquet(ctx, &buf, 1)
	require.NoError(t, err)
	require.Equal(t, 2, written)

	path := filepath.Join(t.TempDir(), "events.parquet")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(parquetEvent), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.Equal(t, int64(2), pr.GetNumRows())
	rows := make([]parquetEvent, 2)
	require.NoError(t, pr.Read(&rows))
	require.Equal(t, int64(2), rows[0].Sequence)
	require.Equal(t, int64(3), rows[1].Sequence)
	require.Equal(t, events.TypeTokenMint, rows[1].Type)
	require.Equal(t, "3", rows[1].Amount)
}

func TestRangePagesInCommitOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := common.HexToAddress("0x00000000000000000000000000000000000000e1")
	for i := 1; i <= 4; i++ {
		store.Emit(events.Stamp(events.TokenApproval{Owner: owner, Spender: owner, Amount: big.NewInt(1)}, uint64(i), 1))
	}
	page, err := store.Range(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(2), page[0].Sequence)
	require.Equal(t, uint64(3), page[1].Sequence)
}
