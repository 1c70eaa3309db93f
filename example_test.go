package keeper_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aweris/keeper"
)

func Example() {
	dir, _ := os.MkdirTemp("", "keeper-example")
	defer os.RemoveAll(dir)

	k, err := keeper.Open(filepath.Join(dir, "cache"))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer k.Close()

	ctx := context.Background()
	_ = k.Set(ctx, "alpha", []byte("hello"), time.Minute)

	v, _ := k.Get(ctx, "alpha")
	fmt.Println(string(v))

	_ = k.Remove(ctx, "alpha")
	_, err = k.Get(ctx, "alpha")
	fmt.Println(errors.Is(err, keeper.ErrNotFound))

	// Output:
	// hello
	// true
}
