package exchange

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Constructor создаёт экземпляр биржевого клиента поверх общего
// HTTP-клиента процесса
type Constructor func(httpClient *HTTPClient) Exchange

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register регистрирует конструктор биржевого клиента под именем.
// Вызывается из init() пакета-адаптера конкретной биржи.
// Повторная регистрация того же имени вызывает панику.
func Register(name string, ctor Constructor) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || ctor == nil {
		panic("exchange: Register with empty name or nil constructor")
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("exchange: Register called twice for %q", name))
	}
	registry[name] = ctor
}

// New создает новый экземпляр биржи по имени
func New(name string, httpClient *HTTPClient) (Exchange, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported exchange: %s (supported: %s)",
			name, strings.Join(Supported(), ", "))
	}
	return ctor(httpClient), nil
}

// Supported возвращает отсортированный список зарегистрированных бирж
func Supported() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupported проверяет, зарегистрирована ли биржа
func IsSupported(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))

	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}
