// Copyright (c) 2025 Neomantra Corp
//
// The contract master maps instrument tokens to tradable contract
// metadata.  On disk it is a UTF-8 JSON object keyed by stringified
// token IDs:
//
//	{"873870": {"symbol":"SENSEX", "expiry":"27-NOV-2025",
//	            "option_type":"CE", "strike":84100,
//	            "instrument_type":"IO"}, ...}
//
// Loaded once at startup and never mutated, so it is shared by
// reference without locking.

package nfcast

import (
	"fmt"
	"os"
	"strconv"

	"github.com/valyala/fastjson"
)

///////////////////////////////////////////////////////////////////////////////

// ContractInfo is the metadata for one instrument token.
type ContractInfo struct {
	Symbol         string  `json:"symbol"`
	Expiry         string  `json:"expiry"` // DD-MMM-YYYY
	OptionType     string  `json:"option_type"`
	Strike         float64 `json:"strike"`
	InstrumentType string  `json:"instrument_type"`
}

// ContractMaster is an immutable token -> ContractInfo mapping.
type ContractMaster struct {
	entries map[uint32]ContractInfo
}

// Get returns the ContractInfo for token, if present.
func (cm *ContractMaster) Get(token uint32) (ContractInfo, bool) {
	info, ok := cm.entries[token]
	return info, ok
}

// Len returns the number of contracts in the master.
func (cm *ContractMaster) Len() int {
	return len(cm.entries)
}

///////////////////////////////////////////////////////////////////////////////

// LoadContractMaster reads and parses a contract master file.
func LoadContractMaster(path string) (*ContractMaster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract master '%s': %w", path, err)
	}
	cm, err := ParseContractMaster(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract master '%s': %w", path, err)
	}
	return cm, nil
}

// ParseContractMaster parses contract master JSON.  Keys may be strings
// on the wire; the in-memory map is integer-keyed.
func ParseContractMaster(data []byte) (*ContractMaster, error) {
	var parser fastjson.Parser
	root, err := parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadContractMaster, err)
	}
	obj, err := root.Object()
	if err != nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrBadContractMaster)
	}

	cm := &ContractMaster{entries: make(map[uint32]ContractInfo, obj.Len())}
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if err != nil {
			return
		}
		token, perr := strconv.ParseUint(string(key), 10, 32)
		if perr != nil {
			err = fmt.Errorf("%w: bad token key '%s'", ErrBadContractMaster, string(key))
			return
		}
		cm.entries[uint32(token)] = ContractInfo{
			Symbol:         string(v.GetStringBytes("symbol")),
			Expiry:         string(v.GetStringBytes("expiry")),
			OptionType:     string(v.GetStringBytes("option_type")),
			Strike:         strikeValue(v),
			InstrumentType: string(v.GetStringBytes("instrument_type")),
		}
	})
	if err != nil {
		return nil, err
	}
	return cm, nil
}

// strikeValue accepts the strike as a JSON number or a numeric string.
func strikeValue(v *fastjson.Value) float64 {
	strike := v.Get("strike")
	if strike == nil {
		return 0
	}
	if strike.Type() == fastjson.TypeString {
		f, err := strconv.ParseFloat(string(strike.GetStringBytes()), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return strike.GetFloat64()
}
