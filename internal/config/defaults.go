package config

const (
	defaultConfigPath        = "~/.config/makeupexam/config.toml"
	defaultStateDir          = "~/.local/share/makeupexam"
	defaultLogDir            = "~/.local/share/makeupexam/logs"
	defaultUploadDir         = "~/.local/share/makeupexam/uploads"
	defaultRosterPath        = "~/Make-Up-Exam-Macro/Students.csv"
	defaultCDPEndpoint       = "http://localhost:9222"
	defaultDebugPort         = 9222
	defaultUserDataDir       = "~/.cache/makeupexam/chrome_debug"
	defaultLoginUserDataDir  = "~/.local/share/makeupexam/browser_data"
	defaultWindowPosition    = "100,100"
	defaultWindowWidth       = 1920
	defaultWindowHeight      = 1080
	defaultAttachSettleMs    = 2000
	defaultFormURL           = "https://my.lonestar.edu/psp/ihprd/EMPLOYEE/EMPL/c/LSC_TCR.LSC_TCRFORMS.GBL"
	defaultOfficeLocation    = "F255"
	defaultBackupPhone       = "281-636-7774"
	defaultCampus            = "400"
	defaultCampusSelector    = `#LSC_TCRFORMCAMP_LSC_TCRSELECTCAMPU\$11`
	defaultCalculatorLabel   = "None"
	defaultMatchThreshold    = 0.5
	defaultServerBind        = "127.0.0.1:5050"
	defaultMaxUploadMiB      = 32
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultNavigationTimeout = 10000
	defaultElementTimeout    = 10000
	defaultLookupTimeout     = 10000
	defaultModalTimeout      = 5000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			UploadDir: defaultUploadDir,
		},
		Roster: Roster{
			Path: defaultRosterPath,
		},
		Browser: Browser{
			CDPEndpoint:       defaultCDPEndpoint,
			DebugPort:         defaultDebugPort,
			UserDataDir:       defaultUserDataDir,
			LoginUserDataDir:  defaultLoginUserDataDir,
			WindowPosition:    defaultWindowPosition,
			WindowWidth:       defaultWindowWidth,
			WindowHeight:      defaultWindowHeight,
			LaunchOnFailure:   true,
			AttachSettleDelay: defaultAttachSettleMs,
		},
		Form: Form{
			URL:            defaultFormURL,
			OfficeLocation: defaultOfficeLocation,
			BackupPhone:    defaultBackupPhone,
			Campus:         defaultCampus,
			CampusSelector: defaultCampusSelector,
			CalculatorRules: []CalculatorRule{
				{Contains: "1314", Label: "Scientific"},
				{Contains: "1324", Label: "Any"},
			},
			CalculatorDefault: defaultCalculatorLabel,
			MatchThreshold:    defaultMatchThreshold,
		},
		Timing: Timing{
			NavigationTimeout: defaultNavigationTimeout,
			ElementTimeout:    defaultElementTimeout,
			LookupTimeout:     defaultLookupTimeout,
			ModalTimeout:      defaultModalTimeout,
			AfterNavigate:     3000,
			AfterAdd:          2000,
			AfterRowAction:    1000,
			AfterAttachClick:  2000,
			AfterFileSet:      2000,
			AfterUpload:       6000,
		},
		Server: Server{
			Bind:         defaultServerBind,
			MaxUploadMiB: defaultMaxUploadMiB,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
