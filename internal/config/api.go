package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
)

// ConfigAPI provides HTTP endpoints to view and modify configuration.
// Writers are serialized by mu; readers use the Live snapshot.
type ConfigAPI struct {
	cfg    *Live
	mu     sync.Mutex
	router *mux.Router
	load   func() (*Config, error)
}

func NewConfigAPI(cfg *Live) *ConfigAPI {
	api := &ConfigAPI{
		cfg:    cfg,
		router: mux.NewRouter(),
		load:   Load,
	}
	api.routes()
	return api
}

func (api *ConfigAPI) Router() *mux.Router {
	return api.router
}

// Register mounts the configuration routes on an existing router.
func (api *ConfigAPI) Register(r *mux.Router) {
	api.mount(r)
}

func (api *ConfigAPI) routes() {
	api.mount(api.router)
}

func (api *ConfigAPI) mount(r *mux.Router) {
	r.HandleFunc("/configure", api.getConfig).Methods("GET")
	r.HandleFunc("/configure/", api.getConfig).Methods("GET")
	r.HandleFunc("/configure", api.updateConfig).Methods("POST")
	r.HandleFunc("/configure/reload", api.reloadConfig).Methods("POST")
	r.HandleFunc("/configure/validate", api.validateConfig).Methods("POST")
	r.HandleFunc("/configure/engines", api.listEngines).Methods("GET")
	r.HandleFunc("/configure/engines/{engine}", api.getEngineConfig).Methods("GET")
}

func (api *ConfigAPI) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, safeConfigCopy(api.cfg.Get()))
}

func (api *ConfigAPI) updateConfig(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()
	var newCfg Config
	if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid config payload: %v", err), http.StatusBadRequest)
		return
	}
	// A masked token in the payload keeps the current one.
	if newCfg.Auth.Token == maskedValue {
		newCfg.Auth.Token = api.cfg.Get().Auth.Token
	}
	if err := newCfg.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("invalid configuration: %v", err), http.StatusBadRequest)
		return
	}
	api.cfg.Set(&newCfg)
	writeJSON(w, safeConfigCopy(&newCfg))
}

func (api *ConfigAPI) reloadConfig(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()
	reloadedCfg, err := api.load()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to reload config: %v", err), http.StatusInternalServerError)
		return
	}
	if err := reloadedCfg.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("reloaded configuration is invalid: %v", err), http.StatusBadRequest)
		return
	}
	api.cfg.Set(reloadedCfg)
	writeJSON(w, safeConfigCopy(reloadedCfg))
}

func (api *ConfigAPI) validateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid config payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("invalid configuration: %v", err), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{"valid": true, "message": "configuration is valid"})
}

func (api *ConfigAPI) listEngines(w http.ResponseWriter, r *http.Request) {
	cfg := api.cfg.Get()
	engines := map[string]interface{}{
		"contract": map[string]interface{}{
			"enabled":      cfg.Engines.Contract.Enabled,
			"catalog_path": cfg.Engines.Contract.CatalogPath,
		},
		"litigation": map[string]interface{}{
			"enabled": cfg.Engines.Litigation.Enabled,
		},
	}
	writeJSON(w, engines)
}

func (api *ConfigAPI) getEngineConfig(w http.ResponseWriter, r *http.Request) {
	cfg := api.cfg.Get()
	engine := mux.Vars(r)["engine"]
	var engineCfg interface{}

	switch engine {
	case "contract":
		engineCfg = cfg.Engines.Contract
	case "litigation":
		engineCfg = cfg.Engines.Litigation
	case "batch":
		engineCfg = cfg.Engines.Batch
	default:
		http.Error(w, fmt.Sprintf("unknown engine: %s", engine), http.StatusNotFound)
		return
	}
	writeJSON(w, engineCfg)
}

const maskedValue = "***"

func safeConfigCopy(cfg *Config) *Config {
	copyCfg := *cfg
	copyCfg.Auth.AllowedTools = append([]string(nil), cfg.Auth.AllowedTools...)
	if copyCfg.Auth.Token != "" {
		copyCfg.Auth.Token = maskedValue
	}
	return &copyCfg
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
