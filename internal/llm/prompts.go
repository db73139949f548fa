package llm

import "fmt"

// SystemPrompt frames every extraction request.
const SystemPrompt = `You are an expert at extracting structured data from Certificate of Analysis (COA) documents.
Read ALL pages and combine the data into a single JSON object.
Pay special attention to product identifiers, batch and lot numbers, CAS numbers, dates,
manufacturer information and the test results table, which may continue across pages.
Return ONLY valid JSON without any markdown formatting or additional text.`

const recordSchema = `{
  "productName": "Full product name",
  "batchNo": "Batch number",
  "lotNo": "Lot number",
  "casNo": "CAS number",
  "date": "Date of analysis or manufacture",
  "expiryDate": "Expiry date if present",
  "purity": "Purity percentage",
  "appearance": "Physical appearance description",
  "supplier": "Manufacturer or supplier name",
  "supplierAddress": "Full supplier address",
  "specifications": [
    {"parameter": "Test parameter name", "specification": "Specification/standard value", "result": "Actual test result"}
  ],
  "additionalInfo": {
    "molecularFormula": "Chemical formula if present",
    "molecularWeight": "Molecular weight if present",
    "storage": "Storage conditions",
    "packaging": "Packaging information",
    "conclusion": "Overall conclusion or remarks"
  }
}`

const instructions = `Rules:
1. Extract ALL specifications from the test results table. Do not skip any rows.
2. If a table continues on the next page, combine the rows into one specifications array.
3. Use null for fields that are not present.
4. Capture numbers and percentages exactly as shown.`

// TextPrompt asks for the record schema given extracted PDF text.
func TextPrompt(text string) string {
	return fmt.Sprintf("Extract ALL data from this COA document text and return JSON with this schema:\n\n%s\n\n%s\n\nCOA Text:\n%s", recordSchema, instructions, text)
}

// DocumentPrompt asks for the record schema given the attached PDF.
func DocumentPrompt() string {
	return fmt.Sprintf("Extract ALL data from the attached Certificate of Analysis. It may have several pages; analyze all of them. Return JSON with this schema:\n\n%s\n\n%s", recordSchema, instructions)
}
