package lexicon

import "github.com/cbioportal-query-assistant/internal/domain"

const proteinCoding = "protein-coding"

// staticCatalog is used when neither a snapshot nor the live gene listing
// is available.
var staticCatalog = []domain.CatalogEntry{
	{Symbol: "TP53", EntrezGeneID: 7157, Type: proteinCoding, Cytoband: "17p13.1"},
	{Symbol: "BRCA1", EntrezGeneID: 672, Type: proteinCoding, Cytoband: "17q21.31"},
	{Symbol: "BRCA2", EntrezGeneID: 675, Type: proteinCoding, Cytoband: "13q13.1"},
	{Symbol: "EGFR", EntrezGeneID: 1956, Type: proteinCoding, Cytoband: "7p11.2"},
	{Symbol: "KRAS", EntrezGeneID: 3845, Type: proteinCoding, Cytoband: "12p12.1"},
	{Symbol: "PIK3CA", EntrezGeneID: 5290, Type: proteinCoding, Cytoband: "3q26.32"},
	{Symbol: "BRAF", EntrezGeneID: 673, Type: proteinCoding, Cytoband: "7q34"},
	{Symbol: "PTEN", EntrezGeneID: 5728, Type: proteinCoding, Cytoband: "10q23.31"},
	{Symbol: "APC", EntrezGeneID: 324, Type: proteinCoding, Cytoband: "5q22.2"},
	{Symbol: "RB1", EntrezGeneID: 5925, Type: proteinCoding, Cytoband: "13q14.2"},
	{Symbol: "NF1", EntrezGeneID: 4763, Type: proteinCoding, Cytoband: "17q11.2"},
	{Symbol: "CDKN2A", EntrezGeneID: 1029, Type: proteinCoding, Cytoband: "9p21.3"},
	{Symbol: "MTOR", EntrezGeneID: 2475, Type: proteinCoding, Cytoband: "1p36.22"},
	{Symbol: "FGFR3", EntrezGeneID: 2261, Type: proteinCoding, Cytoband: "4p16.3"},
	{Symbol: "ALK", EntrezGeneID: 238, Type: proteinCoding, Cytoband: "2p23.2"},
	{Symbol: "ROS1", EntrezGeneID: 6098, Type: proteinCoding, Cytoband: "6q22.1"},
	{Symbol: "MET", EntrezGeneID: 4233, Type: proteinCoding, Cytoband: "7q31.2"},
	{Symbol: "NRAS", EntrezGeneID: 4893, Type: proteinCoding, Cytoband: "1p13.2"},
	{Symbol: "HRAS", EntrezGeneID: 3265, Type: proteinCoding, Cytoband: "11p15.5"},
	{Symbol: "AKT1", EntrezGeneID: 207, Type: proteinCoding, Cytoband: "14q32.33"},
	{Symbol: "ERBB2", EntrezGeneID: 2064, Type: proteinCoding, Cytoband: "17q12"},
	{Symbol: "MYC", EntrezGeneID: 4609, Type: proteinCoding, Cytoband: "8q24.21"},
	{Symbol: "ATM", EntrezGeneID: 472, Type: proteinCoding, Cytoband: "11q22.3"},
	{Symbol: "CHEK2", EntrezGeneID: 11200, Type: proteinCoding, Cytoband: "22q12.1"},
	{Symbol: "PALB2", EntrezGeneID: 79728, Type: proteinCoding, Cytoband: "16p12.2"},
	{Symbol: "CDH1", EntrezGeneID: 999, Type: proteinCoding, Cytoband: "16q22.1"},
	{Symbol: "STK11", EntrezGeneID: 6794, Type: proteinCoding, Cytoband: "19p13.3"},
	{Symbol: "SMAD4", EntrezGeneID: 4089, Type: proteinCoding, Cytoband: "18q21.2"},
	{Symbol: "VHL", EntrezGeneID: 7428, Type: proteinCoding, Cytoband: "3p25.3"},
}

// StaticCatalog returns the built-in list of well-known cancer genes.
func StaticCatalog() []domain.CatalogEntry {
	return append([]domain.CatalogEntry(nil), staticCatalog...)
}
