package pipeline

// StoreDisabledMessage is shown whenever results cannot be persisted
// because no storage credential is configured.
const StoreDisabledMessage = "Google credentials file not set. Add the file path to your .env file for Drive saving."

const (
	msgAwaitingInput      = "Please upload a financial document and enter the stock ticker symbol"
	msgStoreReady         = "Google services available, upload financial document and ticker symbol for Drive saving."
	msgUnsupportedFormat  = "Unsupported file format. Please upload a PDF or Word document."
	msgNoText             = "No text could be extracted from the uploaded document."
	msgAnalysisFailed     = "Failed to generate analysis."
	msgSearchFailed       = "Failed to generate search results. Please try again."
	msgFetchEmpty         = "Could not fetch content from the URL's"
	msgNothingToSave      = "No results to save to Google Drive."
	msgRunCancelled       = "Run cancelled before completion."
	msgSearchSaved        = "Google search results saved to Google Drive with file ID: %s to folder %s"
	msgSearchSaveFailed   = "Failed to save search results to Google Drive."
	msgSearchCreateFailed = "Failed to create search results Google Doc."
	msgAnalysisSaved      = "%s Analysis saved to Google Drive with file ID: %s to folder %s"
	msgAnalysisSaveFailed = "Failed to save %s analysis to Google Drive."
	msgAnalysisCreateFail = "Failed to create %s analysis Google Doc."
	msgReadFailed         = "Could not read the uploaded document: %v"
	msgFetchURLFailed     = "Error fetching content from %s: %s"
	msgFolderFailed       = "Error selecting Google Drive folder: %v"
)
