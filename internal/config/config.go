package config

// Config holds the command line settings of a run.
type Config struct {
	ScenePath    string
	InputPath    string
	OutputVideo  string
	WriteScene   string
	Width        int
	Height       int
	FPS          int
	Workers      int
	DPI          int
	PageDuration float64
	AudioPath    string
	AudioSync    bool
	VideoEncoder string
	Quality      int
	ShowStats    bool
	Preview      bool
	MQTTURL      string
	BuildVersion string
}
