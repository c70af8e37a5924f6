package tcrform

// Page structure of the request form. The form lives in the TargetContent
// iframe; PeopleSoft opens search lookups in ptModFrame_<n> iframes.
const (
	FrameTargetContent = "TargetContent"
	LookupFramePrefix  = "ptModFrame_"
)

// Request header.
const (
	SelectorTerm      = "#LSC_TCRFRMA_VW_LSC_TERM"
	SelectorExamName  = "#LSC_TCRFRMA_VW_LSC_TCTESTNAME"
	SelectorAddButton = "#PTS_CFG_CL_WRK_PTS_ADD_BTN"
)

// Course information.
const (
	SelectorOfficeLocation    = "#LSC_TCRFORMS_LSC_OFFICELOCATION"
	SelectorBackupPhone       = "#LSC_TCRFORMS_LSC_BACKPHONE"
	SelectorCampus            = "#LSC_TCRFORMS_LSC_CAMPUS"
	SelectorCourseInfoRadio   = "input[name='LSC_TCRFORMS_LSC_TCCRSEINFO'][value='C']"
	SelectorWebcamAck         = "#LSC_TCR_WEBCAMACK"
	SelectorExamAck           = "#LSC_TCR_EXAMACK1"
	SelectorCourseNumber      = "#LSC_TCRFORMS_LSC_TCCRSENBR"
	SelectorIndividualStudent = "#LSC_TCRFORMS_LSC_TCRINDSTU"
)

// Student rows and the lookup modal.
const (
	selectorMagnifierFormat = `#LSC_TCRFORMSTU_LSC_SEMPLID\$prompt\$img\$%d`
	SelectorAddRow          = "a[id^='LSC_TCRFORMSTU$new']"
	SelectorResultLinks     = "a.PSSRCHRESULTSODDROW, a.PSSRCHRESULTSEVENROW"
)

// Exam details.
const (
	SelectorExamTest     = "#EXAM_TEST"
	SelectorStartDate    = "#LSC_TCRFORMS_LSC_STARTDATE"
	SelectorEndDate      = "#LSC_TCRFORMS_LSC_ENDDATE"
	SelectorLimitHours   = "#LSC_TCRFORMS_LSC_TCLIMITHOUR"
	SelectorLimitMinutes = "#LSC_TCRFORMS_LSC_TCLIMITMINUTE"
	SelectorPickupEmail  = "#LSC_TCTESTPICKUP_E"
	SelectorScratchPaper = "#MAT_SCRATCHPAPER"
	SelectorCalculator   = "#LSC_TCRFORMS_LSC_TCCALCULATOR"
	SelectorOther        = "#LSC_TCRFORMS_LSC_TCOTHER1"
)

// Attachment upload.
const (
	SelectorAttachAdd      = "#LSC_TCRFIATT_WK_ATTACHADD"
	SelectorModals         = "#pt_modals"
	SelectorModalFileInput = "input[name='#ICOrigFileName']"
	SelectorFileInput      = "input[type='file']"
	SelectorUploadButton   = "#Upload"
	uploadButtonText       = "Upload"
)
