package present

import (
	"fmt"
	"io"

	"github.com/himanishpuri/spectra/pkg/spectra"
)

// RenderState writes the terminal view of st using p for results.
func RenderState(w io.Writer, st spectra.UIState, p Presenter) error {
	switch p.(type) {
	case JSONPresenter, *JSONPresenter:
		return writeJSON(w, stateJSON{
			Phase:   st.Phase().String(),
			Message: st.Message(),
			NoMatch: st.IsNotice(),
			Results: st.Results(),
		})
	}

	var err error
	switch st.Phase() {
	case spectra.PhaseIdle:
		_, err = fmt.Fprintln(w, introLine)
	case spectra.PhaseRecording:
		_, err = fmt.Fprintln(w, recordingLine)
	case spectra.PhaseProcessing:
		_, err = fmt.Fprintln(w, processingLine)
	case spectra.PhaseError:
		if st.IsNotice() {
			_, err = fmt.Fprintln(w, noMatchLine)
		} else {
			_, err = fmt.Fprintf(w, "Error: %s\n", st.Message())
		}
	case spectra.PhaseResults:
		err = p.Render(w, st.Results())
	}
	return err
}
