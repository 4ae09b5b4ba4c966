package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial подключается к узлу и проверяет ID сети.
//
// Если expected == 0, ID сети берётся у узла. Иначе при расхождении
// возвращается ошибка, чтобы не подписать транзакции не для той сети.
func Dial(ctx context.Context, rpcURL string, expected uint64) (*ethclient.Client, *big.Int, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("chain id from %s: %w", rpcURL, err)
	}

	if expected != 0 && chainID.Uint64() != expected {
		client.Close()
		return nil, nil, fmt.Errorf("chain id mismatch: node reports %s, configured %d", chainID, expected)
	}

	return client, chainID, nil
}
