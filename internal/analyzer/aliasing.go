package analyzer

// AliasingVerdict combines the backend's aliasing flag with the client's
// own Nyquist check. Backend is nil when the response carried no flag.
type AliasingVerdict struct {
	Backend       *bool
	Client        bool
	Authoritative bool
	Disagree      bool
}

// JudgeAliasing decides whether a signal aliases. The backend flag wins when
// present; otherwise the client checks 2*frequency > samplingRate. A
// frequency or rate of zero means the client cannot tell.
func JudgeAliasing(backend *bool, frequency, samplingRate float64) AliasingVerdict {
	client := frequency > 0 && samplingRate > 0 && 2*frequency > samplingRate
	v := AliasingVerdict{Backend: backend, Client: client, Authoritative: client}
	if backend != nil {
		v.Authoritative = *backend
		v.Disagree = *backend != client && frequency > 0 && samplingRate > 0
	}
	return v
}

// Label is the display text for the verdict.
func (v AliasingVerdict) Label() string {
	text := "No aliasing"
	if v.Authoritative {
		text = "Aliasing detected"
	}
	if v.Disagree {
		text += " (client check disagrees)"
	}
	return text
}
