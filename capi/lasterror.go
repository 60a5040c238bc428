package capi

import "sync"

// lastError is the process-wide last-error slot (spec.md §6: "a process-wide
// mutable slot holding at most one NUL-terminated UTF-8 diagnostic string";
// spec.md §4.6 ties it to the original's `static ERROR: LazyLock<Mutex<Option<CString>>>`
// in crates/wadge-sys/src/ffi.rs). instance_new and instance_call overwrite
// it whenever they fail, and arena_alloc when its allocation fails;
// arena_alloc on an unknown instance pointer, arena_write and arena_read
// report failure through their return value only. error_take drains it.
var (
	lastErrorMu  sync.Mutex
	lastErrorMsg string
	lastErrorSet bool
)

// setLastError overwrites the slot. A nil err clears it, matching a
// successful call's effect on the diagnostic the caller would otherwise see.
func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err == nil {
		lastErrorSet = false
		lastErrorMsg = ""
		return
	}
	lastErrorMsg = err.Error()
	lastErrorSet = true
}

// lastErrorLength reports the byte length error_len() must return: the
// message plus its terminating NUL, or 0 when the slot is empty.
func lastErrorLength() int {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if !lastErrorSet {
		return 0
	}
	return len(lastErrorMsg) + 1
}

// takeLastError copies up to cap bytes (including the terminating NUL) of
// the stored message into buf and clears the slot, returning the number of
// bytes written. Draining semantics match error_take's contract exactly.
func takeLastError(buf []byte) int {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if !lastErrorSet {
		return 0
	}
	msg := lastErrorMsg
	lastErrorSet = false
	lastErrorMsg = ""

	withNul := append([]byte(msg), 0)
	n := copy(buf, withNul)
	return n
}
