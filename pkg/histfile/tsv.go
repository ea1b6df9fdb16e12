package histfile

import (
	"bufio"
	"fmt"
	"os"
)

func writeTSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "orientation\tinsert_size\tcount")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\n", r.Orientation, r.InsertSize, r.Count)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	return f.Close()
}
