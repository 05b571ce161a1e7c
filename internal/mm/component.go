package mm

import (
	"fmt"
	"io"

	semver "github.com/Masterminds/semver/v3"

	"github.com/opencomp-os/opencomp/internal/kernel"
)

// Component wraps the allocator as a registrable kernel component. Init
// announces the managed region on the console; there is no per-tick work.
func Component(a *Allocator, console io.Writer) kernel.Component {
	return kernel.Component{
		Name:    "memory",
		Version: semver.MustParse("0.1.0"),
		Init: func() {
			fmt.Fprint(console, "[memory] Physical memory manager initialized\n")
			fmt.Fprintf(console, "[memory] Managing %d KB\n",
				a.TotalPages()*PageSize/1024)
		},
	}
}
