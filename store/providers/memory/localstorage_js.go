//go:build js && wasm

package memory

import (
	"fmt"
	"syscall/js"
)

type browserLocalStorage struct{}

// DefaultLocalStorage returns the window's localStorage
func DefaultLocalStorage() LocalStorage {
	return browserLocalStorage{}
}

func storage() (v js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("local storage unavailable; %v", r)
		}
	}()
	v = js.Global().Get("localStorage")
	if v.IsUndefined() || v.IsNull() {
		return v, fmt.Errorf("local storage unavailable")
	}
	return v, nil
}

func (browserLocalStorage) GetItem(key string) (val string, found bool, err error) {
	ls, err := storage()
	if err != nil {
		return "", false, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read local storage; %v", r)
		}
	}()
	item := ls.Call("getItem", key)
	if item.IsNull() {
		return "", false, nil
	}
	return item.String(), true, nil
}

func (browserLocalStorage) SetItem(key, value string) (err error) {
	ls, err := storage()
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to write local storage; %v", r)
		}
	}()
	ls.Call("setItem", key, value)
	return nil
}

func (browserLocalStorage) RemoveItem(key string) (err error) {
	ls, err := storage()
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to remove from local storage; %v", r)
		}
	}()
	ls.Call("removeItem", key)
	return nil
}

func (browserLocalStorage) Keys() (keys []string, err error) {
	ls, err := storage()
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to list local storage; %v", r)
		}
	}()
	n := ls.Get("length").Int()
	for i := 0; i < n; i++ {
		k := ls.Call("key", i)
		if !k.IsNull() {
			keys = append(keys, k.String())
		}
	}
	return keys, nil
}
