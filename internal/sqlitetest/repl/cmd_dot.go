package repl

import (
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/styled"
)

func cmdWAL(r *Repl) {
	if err := r.shell.EnableWALMode(); err != nil {
		styled.ErrorColor().Fprintln(r.out, err.Error())
		return
	}
	styled.DimmedColor().Fprintln(r.out, "Journal mode is now WAL")
}

func cmdNoCheckpoint(r *Repl) {
	if err := r.shell.DisableWALCheckpointing(); err != nil {
		styled.ErrorColor().Fprintln(r.out, err.Error())
		return
	}
	styled.DimmedColor().Fprintln(r.out, "Automatic WAL checkpoints disabled")
}

func cmdDummy(r *Repl) {
	if err := r.shell.CreateDummyData(); err != nil {
		styled.ErrorColor().Fprintln(r.out, err.Error())
		return
	}
	styled.DimmedColor().Fprintln(r.out, "Created table test with 999 rows")
}
