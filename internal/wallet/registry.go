// internal/wallet/registry.go
package wallet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// ErrNotFound возвращается при запросе неизвестного идентификатора кошелька.
var ErrNotFound = errors.New("wallet_not_found")

// Registry хранит загруженные кошельки по их идентификаторам.
type Registry struct {
	mu      sync.RWMutex
	wallets map[string]*Wallet
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		wallets: make(map[string]*Wallet),
		logger:  logger.Named("wallet-registry"),
	}
}

// LoadFile загружает кошельки из CSV-файла с колонками: [Name, PrivateKeyBase58].
// Некорректные строки пропускаются.
func (r *Registry) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return errors.New("CSV file is empty or missing data")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range records[1:] {
		if len(record) != 2 {
			continue
		}
		name := record[0]
		w, err := New(record[1])
		if err != nil {
			r.logger.Warn("Skipping invalid wallet record", zap.String("name", name), zap.Error(err))
			continue
		}
		r.wallets[name] = w
	}
	if len(r.wallets) == 0 {
		return errors.New("no valid wallets loaded")
	}

	r.logger.Info("Wallets loaded", zap.Int("count", len(r.wallets)))
	return nil
}

// Add регистрирует кошелёк под заданным идентификатором.
func (r *Registry) Add(id string, w *Wallet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[id] = w
}

// Load возвращает кошелёк по идентификатору или ErrNotFound.
func (r *Registry) Load(id string) (*Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return w, nil
}
